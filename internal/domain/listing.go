package domain

import (
	"time"

	"github.com/google/uuid"
)

// Parcel is a sender's listing: a package that needs transport.
type Parcel struct {
	ID                 uuid.UUID `json:"id"`
	SenderID           uuid.UUID `json:"sender_id"`
	OriginCountry      string    `json:"origin_country"`
	OriginCity         string    `json:"origin_city"`
	DestinationCountry string    `json:"destination_country"`
	DestinationCity    string    `json:"destination_city"`
	ParcelType         string    `json:"parcel_type"`
	Description        string    `json:"description,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	// Joined fields
	SenderName string `json:"sender_name,omitempty"`
}

// CourierTrip is a traveler's listing: an availability window on a route.
type CourierTrip struct {
	ID                 uuid.UUID `json:"id"`
	CourierID          uuid.UUID `json:"courier_id"`
	OriginCountry      string    `json:"origin_country"`
	OriginCity         string    `json:"origin_city"`
	DestinationCountry string    `json:"destination_country"`
	DestinationCity    string    `json:"destination_city"`
	AvailableFrom      time.Time `json:"available_from"`
	AvailableUntil     time.Time `json:"available_until"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	// Joined fields
	CourierName string `json:"courier_name,omitempty"`
}
