package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cricket-tracker/internal/api"
	"cricket-tracker/internal/domain"
	"cricket-tracker/internal/matches"
	"cricket-tracker/internal/middleware"
	"cricket-tracker/internal/service"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Handler struct {
	matchSvc *service.MatchService
	cricbuzz *api.CricbuzzClient
	logger   zerolog.Logger
}

func NewHandler(matchSvc *service.MatchService, cricbuzz *api.CricbuzzClient, logger zerolog.Logger) *Handler {
	return &Handler{matchSvc: matchSvc, cricbuzz: cricbuzz, logger: logger}
}

type matchesResponse struct {
	Matches []domain.Record `json:"matches"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type snapshotResponse struct {
	ID         string    `json:"id"`
	Feed       string    `json:"feed"`
	MatchCount int       `json:"matchCount"`
	RequestID  string    `json:"requestId,omitempty"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

type snapshotDetailResponse struct {
	snapshotResponse
	Matches []domain.Record `json:"matches"`
}

type healthResponse struct {
	Status string        `json:"status"`
	Quota  api.QuotaInfo `json:"quota"`
}

func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/overview", h.overview).Methods(http.MethodGet)
	r.HandleFunc("/api/snapshots/{feed}", h.snapshots).Methods(http.MethodGet)
	r.HandleFunc("/api/snapshots/{feed}/{id}", h.snapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/{feed:live|upcoming|recent}", h.matches).Methods(http.MethodGet)
	r.PathPrefix("/api/").HandlerFunc(h.notFound)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found", Details: r.URL.Path})
}

func (h *Handler) matches(w http.ResponseWriter, r *http.Request) {
	feed, err := domain.ParseFeed(mux.Vars(r)["feed"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Unknown feed", Details: err.Error()})
		return
	}

	records, err := h.matchSvc.GetMatches(r.Context(), feed)
	if err != nil {
		h.writeFetchError(w, r, feed, err)
		return
	}

	writeJSON(w, http.StatusOK, matchesResponse{Matches: records})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.matchSvc.GetOverview(r.Context())
	if err != nil {
		writeJSON(w, fetchErrorStatus(err), errorResponse{Error: "Failed to fetch matches", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) snapshots(w http.ResponseWriter, r *http.Request) {
	feed, err := domain.ParseFeed(mux.Vars(r)["feed"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Unknown feed", Details: err.Error()})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid limit", Details: err.Error()})
			return
		}
	}

	history, err := h.matchSvc.History(r.Context(), feed, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to list snapshots", Details: err.Error()})
		return
	}

	resp := make([]snapshotResponse, 0, len(history))
	for _, s := range history {
		resp = append(resp, toSnapshotResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	feed, err := domain.ParseFeed(vars["feed"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Unknown feed", Details: err.Error()})
		return
	}

	s, err := h.matchSvc.Snapshot(r.Context(), feed, vars["id"])
	if errors.Is(err, service.ErrSnapshotNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Snapshot not found", Details: vars["id"]})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load snapshot", Details: err.Error()})
		return
	}

	records := matches.Normalize(s.Payload)
	writeJSON(w, http.StatusOK, snapshotDetailResponse{
		snapshotResponse: toSnapshotResponse(*s),
		Matches:          records,
	})
}

func toSnapshotResponse(s domain.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:         s.ID,
		Feed:       string(s.Feed),
		MatchCount: s.MatchCount,
		RequestID:  s.RequestID,
		FetchedAt:  s.FetchedAt,
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Quota: h.cricbuzz.GetQuotaInfo()})
}

func (h *Handler) writeFetchError(w http.ResponseWriter, r *http.Request, feed domain.Feed, err error) {
	h.logger.Warn().Err(err).Str("feed", string(feed)).Str("request_id", middleware.GetRequestID(r.Context())).Msg("serving fetch failure")
	writeJSON(w, fetchErrorStatus(err), errorResponse{
		Error:   fmt.Sprintf("Failed to fetch %s matches", feed),
		Details: err.Error(),
	})
}

func fetchErrorStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, api.ErrUpstreamStatus), errors.Is(err, service.ErrMalformedPayload):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
