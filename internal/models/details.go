package models

// DetailEnrichmentResult is the supplementary detail fetched for one selected offer.
type DetailEnrichmentResult struct {
	Name                string               `json:"name" validate:"required"`
	Location            string               `json:"location"`
	Image               string               `json:"image"`
	Rating              float64              `json:"rating" validate:"gte=0"`
	Price               string               `json:"price"`
	Source              string               `json:"source"`
	Description         string               `json:"description"`
	Amenities           []string             `json:"amenities" validate:"required"`
	PriceBreakdown      *PriceBreakdown      `json:"priceBreakdown" validate:"required"`
	TravelTime          *TravelTime          `json:"travelTime" validate:"required"`
	FoodRecommendations []FoodRecommendation `json:"foodRecommendations" validate:"required,dive"`
	ThingsToDoNearby    []NearbyActivity     `json:"thingsToDoNearby" validate:"required,dive"`
	BookingURL          string               `json:"bookingUrl"`
}

// PriceBreakdown splits the nightly price into its components.
type PriceBreakdown struct {
	RoomPerNight   string `json:"roomPerNight" validate:"required"`
	Taxes          string `json:"taxes" validate:"required"`
	EstimatedTotal string `json:"estimatedTotal" validate:"required"`
}

// TravelTime estimates how long it takes to reach the offer.
type TravelTime struct {
	FromLocation       string  `json:"fromLocation" validate:"required"`
	FlyingHours        float64 `json:"flyingHours" validate:"gte=0"`
	DrivingHours       float64 `json:"drivingHours" validate:"gte=0"`
	PublicTransitHours float64 `json:"publicTransitHours" validate:"gte=0"`
}

// FoodRecommendation is a place to eat near the offer.
type FoodRecommendation struct {
	Name     string  `json:"name" validate:"required"`
	Cuisine  string  `json:"cuisine"`
	Rating   float64 `json:"rating" validate:"gte=0"`
	Distance string  `json:"distance"`
}

// NearbyActivity is something to do near the offer.
type NearbyActivity struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category"`
	Distance string `json:"distance"`
}
