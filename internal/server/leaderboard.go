package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/constants"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/domain"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/middleware"
	"github.com/klassnyjkot-crypto/flappy-leaderboard/internal/service"

	"github.com/rs/zerolog"
)

// LeaderboardServer is the JSON adapter over the service. Wire shape lives
// here and only here; the service speaks domain types.
type LeaderboardServer struct {
	svc    *service.LeaderboardService
	logger zerolog.Logger
}

func NewLeaderboardServer(svc *service.LeaderboardService, logger zerolog.Logger) *LeaderboardServer {
	return &LeaderboardServer{svc: svc, logger: logger}
}

func (s *LeaderboardServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/scores", s.SubmitScore)
	mux.HandleFunc("GET /api/v1/leaderboard", s.GetLeaderboard)
	mux.HandleFunc("GET /api/v1/players/{token}", s.GetPlayer)
}

type submitRequest struct {
	Token string      `json:"token"`
	Score json.Number `json:"score"`
	Name  string      `json:"name"`
}

type submitResponse struct {
	Token     string `json:"token"`
	BestScore int64  `json:"best_score"`
}

type playerResponse struct {
	Token     string `json:"token"`
	Name      string `json:"name,omitempty"`
	BestScore int64  `json:"best_score"`
}

type leaderboardEntry struct {
	Rank      int    `json:"rank"`
	Token     string `json:"token"`
	Name      string `json:"name,omitempty"`
	BestScore int64  `json:"best_score"`
}

type leaderboardResponse struct {
	Players []leaderboardEntry `json:"players"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *LeaderboardServer) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, domain.ErrMissingToken.Error())
		return
	}

	// json.Number keeps 12.5 from silently truncating to 12: a fractional or
	// non-numeric score is the caller's error and never reaches the store.
	score, err := req.Score.Int64()
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidScore.Error())
		return
	}

	best, err := s.svc.SubmitScore(r.Context(), req.Token, score, req.Name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{Token: req.Token, BestScore: best})
}

func (s *LeaderboardServer) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := constants.DefaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	records, err := s.svc.ListTop(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := leaderboardResponse{Players: make([]leaderboardEntry, len(records))}
	for i, rec := range records {
		resp.Players[i] = leaderboardEntry{
			Rank:      i + 1,
			Token:     rec.Token,
			Name:      rec.Name,
			BestScore: rec.BestScore,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *LeaderboardServer) GetPlayer(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	rec, err := s.svc.GetPlayer(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, playerResponse{
		Token:     rec.Token,
		Name:      rec.Name,
		BestScore: rec.BestScore,
	})
}

// writeServiceError maps validation failures to 400 with the failed
// precondition, everything else to a generic 500 so storage internals never
// leak to clients.
func (s *LeaderboardServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error().Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
