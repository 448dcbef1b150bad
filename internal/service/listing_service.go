package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/dkovac/parcelo/internal/repository"
	"github.com/google/uuid"
)

type ListingService struct {
	listingRepo repository.ListingRepository
}

func NewListingService(listingRepo repository.ListingRepository) *ListingService {
	return &ListingService{listingRepo: listingRepo}
}

type CreateParcelInput struct {
	OriginCountry      string `json:"origin_country"`
	OriginCity         string `json:"origin_city"`
	DestinationCountry string `json:"destination_country"`
	DestinationCity    string `json:"destination_city"`
	ParcelType         string `json:"parcel_type"`
	Description        string `json:"description"`
}

type CreateTripInput struct {
	OriginCountry      string    `json:"origin_country"`
	OriginCity         string    `json:"origin_city"`
	DestinationCountry string    `json:"destination_country"`
	DestinationCity    string    `json:"destination_city"`
	AvailableFrom      time.Time `json:"available_from"`
	AvailableUntil     time.Time `json:"available_until"`
	Notes              string    `json:"notes"`
}

func (s *ListingService) CreateParcel(ctx context.Context, userID uuid.UUID, input CreateParcelInput) (*domain.Parcel, error) {
	parcel := &domain.Parcel{
		ID:                 uuid.New(),
		SenderID:           userID,
		OriginCountry:      input.OriginCountry,
		OriginCity:         input.OriginCity,
		DestinationCountry: input.DestinationCountry,
		DestinationCity:    input.DestinationCity,
		ParcelType:         input.ParcelType,
		Description:        input.Description,
		CreatedAt:          time.Now(),
	}

	if err := s.listingRepo.CreateParcel(ctx, parcel); err != nil {
		return nil, fmt.Errorf("creating parcel: %w", err)
	}
	return parcel, nil
}

func (s *ListingService) ListParcels(ctx context.Context) ([]domain.Parcel, error) {
	parcels, err := s.listingRepo.ListParcels(ctx)
	if err != nil {
		return nil, err
	}
	if parcels == nil {
		parcels = []domain.Parcel{}
	}
	return parcels, nil
}

func (s *ListingService) MyParcels(ctx context.Context, userID uuid.UUID) ([]domain.Parcel, error) {
	parcels, err := s.listingRepo.ListParcelsBySender(ctx, userID)
	if err != nil {
		return nil, err
	}
	if parcels == nil {
		parcels = []domain.Parcel{}
	}
	return parcels, nil
}

func (s *ListingService) CreateTrip(ctx context.Context, userID uuid.UUID, input CreateTripInput) (*domain.CourierTrip, error) {
	trip := &domain.CourierTrip{
		ID:                 uuid.New(),
		CourierID:          userID,
		OriginCountry:      input.OriginCountry,
		OriginCity:         input.OriginCity,
		DestinationCountry: input.DestinationCountry,
		DestinationCity:    input.DestinationCity,
		AvailableFrom:      input.AvailableFrom,
		AvailableUntil:     input.AvailableUntil,
		Notes:              input.Notes,
		CreatedAt:          time.Now(),
	}

	if err := s.listingRepo.CreateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("creating courier trip: %w", err)
	}
	return trip, nil
}

func (s *ListingService) ListTrips(ctx context.Context) ([]domain.CourierTrip, error) {
	trips, err := s.listingRepo.ListTrips(ctx)
	if err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []domain.CourierTrip{}
	}
	return trips, nil
}

func (s *ListingService) MyTrips(ctx context.Context, userID uuid.UUID) ([]domain.CourierTrip, error) {
	trips, err := s.listingRepo.ListTripsByCourier(ctx, userID)
	if err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []domain.CourierTrip{}
	}
	return trips, nil
}
