package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ActionResponse acknowledges an action. The outcome shows up in the next
// board update.
type ActionResponse struct {
	Accepted bool   `json:"accepted"`
	Action   Action `json:"action"`
}

// ActionHandler turns HTTP requests into device actions
type ActionHandler struct {
	actions Actions
	timeout time.Duration
}

// NewActionHandler bounds each device call by timeout rather than by the
// lifetime of the browser request.
func NewActionHandler(actions Actions, timeout time.Duration) *ActionHandler {
	return &ActionHandler{actions: actions, timeout: timeout}
}

// RegisterRoutes mounts the action endpoints on r
func (h *ActionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCommand)
	r.Post("/mode", h.handle(func(r *http.Request) (Command, error) {
		return Command{Action: ActionMode, Size: r.URL.Query().Get("size")}, nil
	}))
	r.Post("/start", h.handle(func(*http.Request) (Command, error) {
		return Command{Action: ActionStart}, nil
	}))
	r.Post("/end", h.handle(func(*http.Request) (Command, error) {
		return Command{Action: ActionEnd}, nil
	}))
	r.Post("/select", h.handle(func(r *http.Request) (Command, error) {
		value, err := strconv.Atoi(r.URL.Query().Get("value"))
		if err != nil {
			return Command{}, errors.New("value must be an integer")
		}
		return Command{Action: ActionSelect, Value: value}, nil
	}))
	r.Post("/roll", h.handle(func(*http.Request) (Command, error) {
		return Command{Action: ActionRoll}, nil
	}))
	r.Post("/rules/{flag}", h.handle(func(r *http.Request) (Command, error) {
		on, err := strconv.ParseBool(r.URL.Query().Get("value"))
		if err != nil {
			return Command{}, errors.New("value must be 1 or 0")
		}
		return Command{Action: ActionRule, Flag: chi.URLParam(r, "flag"), On: on}, nil
	}))
}

// HandleCommand handles POST /api/actions with a JSON Command body
func (h *ActionHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&cmd); err != nil {
		http.Error(w, "invalid command body", http.StatusBadRequest)
		return
	}
	h.dispatch(w, r, cmd)
}

func (h *ActionHandler) handle(parse func(*http.Request) (Command, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := parse(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.dispatch(w, r, cmd)
	}
}

func (h *ActionHandler) dispatch(w http.ResponseWriter, r *http.Request, cmd Command) {
	// a dropped request must not abort a device command halfway
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()

	err := cmd.Dispatch(ctx, h.actions)
	if errors.Is(err, ErrInvalidCommand) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		// device failures are not surfaced; the next poll corrects the view
		log.Warn().Err(err).Str("action", string(cmd.Action)).Msg("action did not change board state")
	}
	writeJSON(w, http.StatusAccepted, ActionResponse{Accepted: true, Action: cmd.Action})
}
