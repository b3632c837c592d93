package models

import "fmt"

// LatestOffers returns the results of the most recent assistant message that carries any.
func LatestOffers(msgs []Message) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAssistant && msgs[i].HasResults() {
			return msgs[i], true
		}
	}
	return Message{}, false
}

// FindOffer looks up an offer by id, newest message first. Offer ids are only
// unique within one message, so the most recent match wins.
func FindOffer(msgs []Message, offerID string) (*SearchResult, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		for j := range msgs[i].Results {
			if msgs[i].Results[j].ID == offerID {
				return &msgs[i].Results[j], true
			}
		}
	}
	return nil, false
}

// AmenityPreview returns at most limit amenities and a "+N" suffix for the rest.
func AmenityPreview(amenities []string, limit int) ([]string, string) {
	if limit < 0 {
		limit = 0
	}
	if len(amenities) <= limit {
		return amenities, ""
	}
	return amenities[:limit], fmt.Sprintf("+%d", len(amenities)-limit)
}
