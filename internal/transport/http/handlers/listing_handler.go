package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dkovac/parcelo/internal/service"
	"github.com/dkovac/parcelo/internal/transport/http/middleware"
	"github.com/dkovac/parcelo/pkg/validator"
	"github.com/rs/zerolog"
)

type ListingHandler struct {
	listings *service.ListingService
	log      zerolog.Logger
}

func NewListingHandler(listings *service.ListingService, log zerolog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, log: log.With().Str("component", "http").Logger()}
}

func (h *ListingHandler) CreateParcel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateParcelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateParcel(input.OriginCity, input.DestinationCity, input.ParcelType); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	parcel, err := h.listings.CreateParcel(r.Context(), userID, input)
	if err != nil {
		h.log.Error().Err(err).Msg("create parcel failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, parcel)
}

func (h *ListingHandler) ListParcels(w http.ResponseWriter, r *http.Request) {
	parcels, err := h.listings.ListParcels(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list parcels failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, parcels)
}

func (h *ListingHandler) MyParcels(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	parcels, err := h.listings.MyParcels(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list own parcels failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, parcels)
}

func (h *ListingHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateTripInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateTrip(input.OriginCity, input.DestinationCity, input.AvailableFrom, input.AvailableUntil); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	trip, err := h.listings.CreateTrip(r.Context(), userID, input)
	if err != nil {
		h.log.Error().Err(err).Msg("create trip failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

func (h *ListingHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.listings.ListTrips(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list trips failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, trips)
}

func (h *ListingHandler) MyTrips(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	trips, err := h.listings.MyTrips(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list own trips failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, trips)
}
