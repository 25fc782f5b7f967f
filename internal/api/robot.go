package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/nerrad567/vectorlink/internal/gateway"
	"github.com/nerrad567/vectorlink/internal/robot"
	"github.com/nerrad567/vectorlink/internal/session"
)

// handleRobotStatus returns the session summary without querying the robot.
func (s *Server) handleRobotStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.robot.Status())
}

func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	state, err := s.robot.BatteryState(r.Context())
	if err != nil {
		s.writeRobotError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	state, err := s.robot.VersionState(r.Context())
	if err != nil {
		s.writeRobotError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleNetwork returns link counters. The robot reports these unreliably.
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	state, err := s.robot.NetworkState(r.Context())
	if err != nil {
		s.writeRobotError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"best_effort": true,
		"network":     state,
	})
}

// handleControl reports the control state. With a relay attached it also
// reports whether personality suppression is in effect.
func (s *Server) handleControl(w http.ResponseWriter, _ *http.Request) {
	st := s.robot.Status()
	body := map[string]any{
		"state":      st.Control,
		"connection": st.Connection,
	}
	if s.relay != nil {
		body["suppressed"] = s.relay.Suppressed()
	}
	writeJSON(w, http.StatusOK, body)
}

// handleLastBattery returns the relay's last polled battery state without
// querying the robot.
func (s *Server) handleLastBattery(w http.ResponseWriter, _ *http.Request) {
	var last *robot.BatteryState
	if s.relay != nil {
		last = s.relay.LastBattery()
	}
	if last == nil {
		writeNotFound(w, "no battery sample yet")
		return
	}
	writeJSON(w, http.StatusOK, last)
}

// writeRobotError maps robot query failures onto HTTP statuses.
func (s *Server) writeRobotError(w http.ResponseWriter, r *http.Request, err error) {
	var fault *gateway.CommunicationFault
	switch {
	case errors.Is(err, session.ErrNotConnected):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "robot is not connected")
	case errors.As(err, &fault):
		writeError(w, http.StatusBadGateway, ErrCodeRobotFault, "robot answered "+fault.Code.String())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, "robot did not answer in time")
	default:
		s.logger.Warn("robot query failed", "path", r.URL.Path, "error", err)
		writeInternalError(w, "robot query failed")
	}
}
