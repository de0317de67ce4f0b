package risk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/scamcheck/internal/pagination"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seedOutcomes(t *testing.T, s Store) time.Time {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []struct {
		id       string
		category string
		level    Level
		offset   time.Duration
	}{
		{"out_a", "marketplace", NeutralRisk, 0},
		{"out_b", "marketplace", HighRisk, time.Minute},
		{"out_c", "crypto-payment", HighRisk, 2 * time.Minute},
		{"out_d", "gift-card", LowRisk, 3 * time.Minute},
	}
	for _, r := range rows {
		require.NoError(t, s.Record(context.Background(), &Outcome{
			ID: r.id, Category: r.category, RiskLevel: r.level,
			Channel: ChannelSession, CompletedAt: base.Add(r.offset),
		}))
	}
	return base
}

func TestMemoryStore_RecordRejectsInvalid(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	assert.ErrorIs(t, s.Record(ctx, nil), ErrInvalidOutcome)
	assert.ErrorIs(t, s.Record(ctx, &Outcome{RiskLevel: HighRisk}), ErrInvalidOutcome)
	assert.ErrorIs(t, s.Record(ctx, &Outcome{ID: "out_x", RiskLevel: "extreme"}), ErrInvalidOutcome)
}

func TestMemoryStore_ListRecent(t *testing.T) {
	s := NewMemoryStore()
	seedOutcomes(t, s)
	ctx := context.Background()

	all, err := s.ListRecent(ctx, "", 10, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "out_d", all[0].ID)
	assert.Equal(t, "out_a", all[3].ID)

	first, err := s.ListRecent(ctx, "", 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)

	last := first[1]
	rest, err := s.ListRecent(ctx, "", 10, &pagination.Cursor{At: last.CompletedAt, ID: last.ID})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "out_b", rest[0].ID)

	market, err := s.ListRecent(ctx, "marketplace", 10, nil)
	require.NoError(t, err)
	assert.Len(t, market, 2)

	// Returned outcomes are copies.
	all[0].Category = "mutated"
	again, _ := s.ListRecent(ctx, "", 1, nil)
	assert.Equal(t, "gift-card", again[0].Category)
}

func TestMemoryStore_Stats(t *testing.T) {
	s := NewMemoryStore()
	base := seedOutcomes(t, s)
	ctx := context.Background()

	stats, err := s.Stats(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByLevel[HighRisk])
	assert.Equal(t, 1, stats.ByLevel[NeutralRisk])
	assert.Equal(t, 1, stats.ByLevel[LowRisk])
	assert.Equal(t, 1, stats.ByCategory["marketplace"][HighRisk])

	recent, err := s.Stats(ctx, base.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, recent.Total)
}

func TestHandler_ListOutcomesPaginates(t *testing.T) {
	s := NewMemoryStore()
	seedOutcomes(t, s)
	r := gin.New()
	NewHandler(s).RegisterAdminRoutes(r.Group("/v1/admin"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/outcomes?limit=3", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Outcomes   []*Outcome `json:"outcomes"`
		Count      int        `json:"count"`
		NextCursor string     `json:"nextCursor"`
		HasMore    bool       `json:"hasMore"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Count)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextCursor)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/outcomes?limit=3&cursor="+page.NextCursor, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Count)
	assert.False(t, page.HasMore)
	assert.Equal(t, "out_a", page.Outcomes[0].ID)
}

func TestHandler_ListOutcomesBadCursor(t *testing.T) {
	r := gin.New()
	NewHandler(NewMemoryStore()).RegisterAdminRoutes(r.Group("/v1/admin"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/outcomes?cursor=abc!", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Stats(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Record(context.Background(), &Outcome{
		ID: "out_now", Category: "marketplace", RiskLevel: HighRisk,
		Channel: ChannelStateless, CompletedAt: time.Now(),
	}))
	r := gin.New()
	NewHandler(s).RegisterAdminRoutes(r.Group("/v1/admin"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/outcomes/stats?window=1h", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Stats  Stats  `json:"stats"`
		Window string `json:"window"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Stats.Total)
	assert.Equal(t, 1, body.Stats.ByLevel[HighRisk])
	assert.Equal(t, "1h0m0s", body.Window)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/outcomes/stats?window=-5m", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
