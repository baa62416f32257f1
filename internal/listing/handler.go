package listing

import (
	"encoding/json"
	"net/http"

	errors "github.com/betselot/gojo-bookings/internal"
	listingmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/listing"
	"github.com/betselot/gojo-bookings/internal/transport"
)

type ServiceAPI interface {
	GetAllListings() ([]ListingResponse, error)
	CreateListing(req CreateListingRequest) (*listingmodel.Listing, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetListings handles GET /listings
func (h *Handler) GetListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Service.GetAllListings()
	if err != nil {
		h.Logger.Error("GetListings: failed to get listings", "error", err)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListingsResponse{
		Listings: listings,
	})
}

// CreateListing handles POST /listings
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CreateListing: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	l, err := h.Service.CreateListing(req)
	if err != nil {
		h.Logger.Error("CreateListing: service error", "error", err)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ToResponse(l))
}
