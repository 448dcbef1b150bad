package postgres

import (
	"context"
	"errors"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingRepo struct {
	pool *pgxpool.Pool
}

func NewListingRepo(pool *pgxpool.Pool) *ListingRepo {
	return &ListingRepo{pool: pool}
}

func (r *ListingRepo) CreateParcel(ctx context.Context, parcel *domain.Parcel) error {
	query := `
		INSERT INTO parcels (id, sender_id, origin_country, origin_city, destination_country,
			destination_city, parcel_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		parcel.ID, parcel.SenderID, parcel.OriginCountry, parcel.OriginCity,
		parcel.DestinationCountry, parcel.DestinationCity, parcel.ParcelType,
		parcel.Description, parcel.CreatedAt,
	)
	return err
}

func (r *ListingRepo) GetParcelByID(ctx context.Context, id uuid.UUID) (*domain.Parcel, error) {
	query := parcelSelect + ` WHERE p.id = $1`
	var p domain.Parcel
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SenderID, &p.OriginCountry, &p.OriginCity,
		&p.DestinationCountry, &p.DestinationCity, &p.ParcelType,
		&p.Description, &p.CreatedAt, &p.SenderName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (r *ListingRepo) ListParcels(ctx context.Context) ([]domain.Parcel, error) {
	return r.listParcels(ctx, parcelSelect+` ORDER BY p.created_at DESC`)
}

func (r *ListingRepo) ListParcelsBySender(ctx context.Context, senderID uuid.UUID) ([]domain.Parcel, error) {
	return r.listParcels(ctx, parcelSelect+` WHERE p.sender_id = $1 ORDER BY p.created_at DESC`, senderID)
}

const parcelSelect = `
	SELECT p.id, p.sender_id, p.origin_country, p.origin_city, p.destination_country,
		p.destination_city, p.parcel_type, p.description, p.created_at, u.display_name
	FROM parcels p
	JOIN users u ON p.sender_id = u.id`

func (r *ListingRepo) listParcels(ctx context.Context, query string, args ...any) ([]domain.Parcel, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parcels []domain.Parcel
	for rows.Next() {
		var p domain.Parcel
		if err := rows.Scan(
			&p.ID, &p.SenderID, &p.OriginCountry, &p.OriginCity,
			&p.DestinationCountry, &p.DestinationCity, &p.ParcelType,
			&p.Description, &p.CreatedAt, &p.SenderName,
		); err != nil {
			return nil, err
		}
		parcels = append(parcels, p)
	}
	return parcels, rows.Err()
}

func (r *ListingRepo) CreateTrip(ctx context.Context, trip *domain.CourierTrip) error {
	query := `
		INSERT INTO courier_trips (id, courier_id, origin_country, origin_city, destination_country,
			destination_city, available_from, available_until, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query,
		trip.ID, trip.CourierID, trip.OriginCountry, trip.OriginCity,
		trip.DestinationCountry, trip.DestinationCity, trip.AvailableFrom,
		trip.AvailableUntil, trip.Notes, trip.CreatedAt,
	)
	return err
}

func (r *ListingRepo) GetTripByID(ctx context.Context, id uuid.UUID) (*domain.CourierTrip, error) {
	query := tripSelect + ` WHERE t.id = $1`
	var t domain.CourierTrip
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.CourierID, &t.OriginCountry, &t.OriginCity,
		&t.DestinationCountry, &t.DestinationCity, &t.AvailableFrom,
		&t.AvailableUntil, &t.Notes, &t.CreatedAt, &t.CourierName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &t, err
}

func (r *ListingRepo) ListTrips(ctx context.Context) ([]domain.CourierTrip, error) {
	return r.listTrips(ctx, tripSelect+` ORDER BY t.created_at DESC`)
}

func (r *ListingRepo) ListTripsByCourier(ctx context.Context, courierID uuid.UUID) ([]domain.CourierTrip, error) {
	return r.listTrips(ctx, tripSelect+` WHERE t.courier_id = $1 ORDER BY t.created_at DESC`, courierID)
}

const tripSelect = `
	SELECT t.id, t.courier_id, t.origin_country, t.origin_city, t.destination_country,
		t.destination_city, t.available_from, t.available_until, t.notes, t.created_at, u.display_name
	FROM courier_trips t
	JOIN users u ON t.courier_id = u.id`

func (r *ListingRepo) listTrips(ctx context.Context, query string, args ...any) ([]domain.CourierTrip, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []domain.CourierTrip
	for rows.Next() {
		var t domain.CourierTrip
		if err := rows.Scan(
			&t.ID, &t.CourierID, &t.OriginCountry, &t.OriginCity,
			&t.DestinationCountry, &t.DestinationCity, &t.AvailableFrom,
			&t.AvailableUntil, &t.Notes, &t.CreatedAt, &t.CourierName,
		); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}
