package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/store"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// StateProvider exposes the synchronizer's latest state
type StateProvider interface {
	Current() (synchronizer.Update, bool)
}

// HistoryProvider returns recently recorded snapshots, newest first
type HistoryProvider interface {
	Recent(ctx context.Context, limit int) ([]store.Record, error)
}

// BoardStateResponse is the body of GET /api/board
type BoardStateResponse struct {
	Generation  uint64            `json:"generation"`
	Snapshot    board.Snapshot    `json:"snapshot"`
	Frame       board.Frame       `json:"frame"`
	Affordances board.Affordances `json:"affordances"`
}

// HistoryResponse is the body of GET /api/history
type HistoryResponse struct {
	Records []store.Record `json:"records"`
}

// StateHandler handles HTTP requests for board state
type StateHandler struct {
	stateProvider   StateProvider
	historyProvider HistoryProvider
}

// NewStateHandler creates a state handler. history may be nil when no store
// is configured.
func NewStateHandler(provider StateProvider, history HistoryProvider) *StateHandler {
	return &StateHandler{
		stateProvider:   provider,
		historyProvider: history,
	}
}

// HandleGetBoard handles GET /api/board
func (h *StateHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	update, ok := h.stateProvider.Current()
	if !ok {
		http.Error(w, "board state not received yet", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, BoardStateResponse{
		Generation:  update.Generation,
		Snapshot:    update.Snapshot,
		Frame:       update.Frame,
		Affordances: update.Affordances,
	})
}

// HandleGetHistory handles GET /api/history?limit=N
func (h *StateHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if h.historyProvider == nil {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.historyProvider.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Int("limit", limit).Msg("failed to get board history")
		http.Error(w, "failed to get board history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.Record{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Records: records})
}
