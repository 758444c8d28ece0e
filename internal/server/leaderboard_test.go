package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/domain"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/repository"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/service"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) (*http.ServeMux, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	svc := service.NewLeaderboardService(store, zerolog.Nop())
	srv := NewLeaderboardServer(svc, zerolog.Nop())

	mux := http.NewServeMux()
	srv.Register(mux)
	return mux, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSubmitScoreEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/scores", `{"token":"a","score":10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a", resp.Token)
	assert.Equal(t, int64(10), resp.BestScore)

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/scores", `{"token":"a","score":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(10), resp.BestScore)
}

func TestSubmitScoreValidation(t *testing.T) {
	mux, _ := newTestMux(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing token", `{"score":10}`, "token is required"},
		{"fractional score", `{"token":"a","score":12.5}`, "score must be an integer"},
		{"non-numeric score", `{"token":"a","score":"lots"}`, "invalid request body"},
		{"garbage body", `{`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, mux, http.MethodPost, "/api/v1/scores", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.want)
		})
	}
}

func TestLeaderboardEndpointOrdering(t *testing.T) {
	mux, store := newTestMux(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		token string
		score int64
		name  string
		at    time.Time
	}{
		{"carol", 50, "Carol", base.Add(2 * time.Minute)},
		{"alice", 50, "Alice", base.Add(time.Minute)},
		{"bob", 99, "", base.Add(3 * time.Minute)},
	}
	for _, s := range seed {
		_, err := store.UpsertMax(t.Context(), s.token, s.score, s.name, s.at)
		require.NoError(t, err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/leaderboard?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp leaderboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	want := leaderboardResponse{Players: []leaderboardEntry{
		{Rank: 1, Token: "bob", BestScore: 99},
		{Rank: 2, Token: "alice", Name: "Alice", BestScore: 50},
		{Rank: 3, Token: "carol", Name: "Carol", BestScore: 50},
	}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("leaderboard mismatch (-want +got):\n%s", diff)
	}
}

func TestLeaderboardEndpointClampsLimit(t *testing.T) {
	mux, store := newTestMux(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		token := string(rune('a' + i))
		_, err := store.UpsertMax(t.Context(), token, int64(i), "", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/leaderboard?limit=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp leaderboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Players, 1, "limit 0 clamps to 1")

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/leaderboard?limit=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Players, 5, "limit 1000 clamps to 100, returning everything present")

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/leaderboard?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPlayerEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/scores", `{"token":"a","score":20,"name":"Al"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/players/a", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp playerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a", resp.Token)
	assert.Equal(t, "Al", resp.Name)
	assert.Equal(t, int64(20), resp.BestScore)
}

type downStore struct{}

func (downStore) UpsertMax(context.Context, string, int64, string, time.Time) (int64, error) {
	return 0, errors.New("sqlite: database is locked")
}

func (downStore) TopN(context.Context, int) ([]domain.PlayerRecord, error) {
	return nil, errors.New("sqlite: database is locked")
}

func (downStore) GetByToken(context.Context, string) (*domain.PlayerRecord, error) {
	return nil, errors.New("sqlite: database is locked")
}

func TestStorageFailureReturnsGenericInternalError(t *testing.T) {
	svc := service.NewLeaderboardService(downStore{}, zerolog.Nop())
	srv := NewLeaderboardServer(svc, zerolog.Nop())
	mux := http.NewServeMux()
	srv.Register(mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/scores", `{"token":"a","score":10}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal error", resp.Error, "storage internals must not leak to clients")
}

func TestGetPlayerEndpointUnknownToken(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/players/ghost", "")
	require.Equal(t, http.StatusOK, rec.Code, "an unknown player is a zero-score player, not a 404")

	var resp playerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ghost", resp.Token)
	assert.Equal(t, int64(0), resp.BestScore)
	assert.Empty(t, resp.Name)

	body := rec.Body.String()
	assert.NotContains(t, body, "name", "absent name is omitted from the payload")
}
