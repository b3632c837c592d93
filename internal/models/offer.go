package models

// OfferType is the kind of bookable item an offer represents.
type OfferType string

const (
	OfferHotel  OfferType = "Hotel"
	OfferFlight OfferType = "Flight"
	OfferRental OfferType = "Rental"
)

// SearchResult is a ranked offer surfaced inside an assistant message.
// It is read-only on the client.
type SearchResult struct {
	ID          string    `json:"id" validate:"required"`
	Type        OfferType `json:"type" validate:"required,oneof=Hotel Flight Rental"`
	Name        string    `json:"name" validate:"required"`
	Location    string    `json:"location"`
	Price       string    `json:"price"`
	Rating      float64   `json:"rating" validate:"gte=0"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Source      string    `json:"source"`
	BookingURL  string    `json:"bookingUrl"`
	Amenities   []string  `json:"amenities" validate:"required"`
}

// DetailEnrichmentRequest scopes one enrichment fetch to one offer.
type DetailEnrichmentRequest struct {
	HotelID      string `json:"hotelId"`
	HotelName    string `json:"hotelName"`
	Location     string `json:"location"`
	FromLocation string `json:"fromLocation"`
}

// EnrichmentRequestFor derives the enrichment key for an offer.
func EnrichmentRequestFor(offer *SearchResult, fromLocation string) DetailEnrichmentRequest {
	return DetailEnrichmentRequest{
		HotelID:      offer.ID,
		HotelName:    offer.Name,
		Location:     offer.Location,
		FromLocation: fromLocation,
	}
}
