package session_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/wayfinder/internal/client"
	"github.com/raphaelgruber/wayfinder/internal/enrichment"
	"github.com/raphaelgruber/wayfinder/internal/models"
	"github.com/raphaelgruber/wayfinder/internal/schema"
	"github.com/raphaelgruber/wayfinder/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// store is an in-memory remote store that records details requests.
type store struct {
	mu       sync.Mutex
	messages []models.Message
	details  []models.DetailEnrichmentRequest
	// corrupt makes history answer 200 with an offer missing its amenities.
	corrupt bool
}

func (s *store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.URL.Path {
	case client.HistoryPath:
		if s.corrupt {
			_, _ = io.WriteString(w, `{"messages": [{"id": 1, "role": "assistant", "content": "x",
				"results": [{"id": "h9", "type": "Hotel", "name": "Broken"}]}]}`)
			return
		}
		_ = json.NewEncoder(w).Encode(models.HistoryResponse{Messages: s.messages})
	case client.SendPath:
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := int64(len(s.messages) + 1)
		s.messages = append(s.messages,
			models.Message{ID: id, Role: models.RoleUser, Content: body.Message},
			models.Message{ID: id + 1, Role: models.RoleAssistant, Content: "Two options", Results: []models.SearchResult{
				{ID: "h1", Type: models.OfferHotel, Name: "Hotel Lux", Location: "Lisbon", Amenities: []string{"wifi"}},
				{ID: "h2", Type: models.OfferHotel, Name: "Baixa House", Location: "Lisbon", Amenities: []string{}},
			}},
		)
		_, _ = io.WriteString(w, `{}`)
	case client.DetailsPath:
		var req models.DetailEnrichmentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.details = append(s.details, req)
		_ = json.NewEncoder(w).Encode(models.DetailsResponse{Details: &models.DetailEnrichmentResult{
			Name:                req.HotelName,
			Location:            req.Location,
			Amenities:           []string{"wifi", "spa"},
			PriceBreakdown:      &models.PriceBreakdown{RoomPerNight: "$180", Taxes: "$20", EstimatedTotal: "$600"},
			TravelTime:          &models.TravelTime{FromLocation: req.FromLocation, FlyingHours: 2},
			FoodRecommendations: []models.FoodRecommendation{},
			ThingsToDoNearby:    []models.NearbyActivity{},
		}})
	default:
		http.NotFound(w, r)
	}
}

func (s *store) setCorrupt(corrupt bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrupt = corrupt
}

func (s *store) detailRequests() []models.DetailEnrichmentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DetailEnrichmentRequest(nil), s.details...)
}

func newSession(t *testing.T) (*session.Session, *store) {
	t.Helper()
	st := &store{messages: []models.Message{}}
	srv := httptest.NewServer(st)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	remote := client.New(srv.URL, client.WithLogger(logger))
	return session.New(remote, "", logger), st
}

func TestConversationRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, st := newSession(t)

	msgs, err := s.Messages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, s.Submit(ctx, "find hotels in Lisbon"))
	msgs, err = s.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	ctrl, err := s.Open(ctx, "h1")
	require.NoError(t, err)
	snap, err := ctrl.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, enrichment.StateSuccess, snap.State)
	assert.Equal(t, "Hotel Lux", snap.Details.Name)
	assert.Equal(t, []models.DetailEnrichmentRequest{{
		HotelID:      "h1",
		HotelName:    "Hotel Lux",
		Location:     "Lisbon",
		FromLocation: enrichment.DefaultOrigin,
	}}, st.detailRequests())

	s.CloseOffer()
	assert.Equal(t, enrichment.StateIdle, s.Selector().Current().State)
}

func TestOpenFromUsesGivenOrigin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, st := newSession(t)

	require.NoError(t, s.Submit(ctx, "find hotels in Lisbon"))

	ctrl, err := s.OpenFrom(ctx, "h2", "Madrid")
	require.NoError(t, err)
	_, err = ctrl.Wait(ctx)
	require.NoError(t, err)

	reqs := st.detailRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Madrid", reqs[0].FromLocation)
	assert.Equal(t, "Madrid", s.Selector().Current().Details.TravelTime.FromLocation)
}

func TestOpenUnknownOffer(t *testing.T) {
	s, st := newSession(t)

	_, err := s.Open(context.Background(), "nope")
	require.ErrorIs(t, err, session.ErrOfferNotFound)
	assert.Empty(t, st.detailRequests())
}

func TestInvalidHistoryKeepsCachedMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, st := newSession(t)

	require.NoError(t, s.Submit(ctx, "find hotels in Lisbon"))
	msgs, err := s.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	st.setCorrupt(true)
	s.Cache().Invalidate(ctx)

	msgs, err = s.Messages(ctx)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "messages[0].results[0].amenities", verr.Path)
	assert.Equal(t, "required", verr.Rule)

	require.Len(t, msgs, 2)
	assert.Equal(t, "find hotels in Lisbon", msgs[0].Content)
	assert.Equal(t, "h1", msgs[1].Results[0].ID)

	snap := s.Cache().Snapshot()
	assert.True(t, snap.HasValue())
	assert.True(t, snap.Stale)
	assert.Equal(t, msgs, snap.Messages)

	// The offers from the last good history stay selectable.
	ctrl, err := s.Open(ctx, "h1")
	require.NoError(t, err)
	_, err = ctrl.Wait(ctx)
	require.NoError(t, err)
}
