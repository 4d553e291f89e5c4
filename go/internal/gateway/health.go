package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

type HealthStatus struct {
	Healthy             bool              `json:"healthy"`
	Generation          uint64            `json:"generation"`
	LastPollAt          time.Time         `json:"last_poll_at"`
	LastSuccessAt       time.Time         `json:"last_success_at"`
	ConsecutiveFailures int               `json:"consecutive_failures"`
	Connections         int               `json:"connections"`
	Components          map[string]string `json:"components"`
	Errors              []string          `json:"errors"`
}

// SyncStatusProvider reports the poll task's state
type SyncStatusProvider interface {
	Status() synchronizer.Status
}

// Probe is an optional dependency whose reachability is reported
type Probe interface {
	Name() string
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	sync        SyncStatusProvider
	connections *ConnectionManager
	probes      []Probe
	clock       clockwork.Clock
	threshold   time.Duration // how long without a good poll before unhealthy
}

func NewHealthChecker(sync SyncStatusProvider, connections *ConnectionManager, clock clockwork.Clock, threshold time.Duration, probes ...Probe) *HealthChecker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthChecker{
		sync:        sync,
		connections: connections,
		probes:      probes,
		clock:       clock,
		threshold:   threshold,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	st := h.sync.Status()
	status := HealthStatus{
		Healthy:             true,
		Generation:          st.Generation,
		LastPollAt:          st.LastPollAt,
		LastSuccessAt:       st.LastSuccessAt,
		ConsecutiveFailures: st.ConsecutiveFailures,
		Components:          make(map[string]string),
		Errors:              []string{},
	}
	if h.connections != nil {
		status.Connections = h.connections.GetConnectionStats().TotalConnections
	}

	if !st.Healthy(h.clock.Now(), h.threshold) {
		status.Healthy = false
		if st.LastError != "" {
			status.Errors = append(status.Errors, fmt.Sprintf("board unreachable: %s", st.LastError))
		} else {
			status.Errors = append(status.Errors, fmt.Sprintf("no board snapshot within %s", h.threshold))
		}
	}

	// probes degrade the report but not the board's health
	for _, p := range h.probes {
		if err := p.Ping(ctx); err != nil {
			status.Components[p.Name()] = "down"
			status.Errors = append(status.Errors, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		status.Components[p.Name()] = "up"
	}

	return status
}

// ServeHTTP handles GET /health
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
