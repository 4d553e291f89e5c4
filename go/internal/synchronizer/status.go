package synchronizer

import "time"

// Status is a diagnostic summary of the poll task.
type Status struct {
	Generation          uint64    `json:"generation"`
	LastPollAt          time.Time `json:"lastPollAt"`
	LastSuccessAt       time.Time `json:"lastSuccessAt"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
}

// Healthy reports whether the device answered within maxAge of now.
func (st Status) Healthy(now time.Time, maxAge time.Duration) bool {
	if st.LastSuccessAt.IsZero() {
		return false
	}
	return now.Sub(st.LastSuccessAt) <= maxAge
}

func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Synchronizer) recordPoll(err error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastPollAt = now
	if err != nil {
		s.status.ConsecutiveFailures++
		s.status.LastError = err.Error()
		return
	}
	s.status.LastSuccessAt = now
	s.status.ConsecutiveFailures = 0
	s.status.LastError = ""
}
