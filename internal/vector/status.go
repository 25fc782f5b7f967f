package vector

import (
	"github.com/nerrad567/vectorlink/internal/control"
	"github.com/nerrad567/vectorlink/internal/session"
)

// Status summarises the session without talking to the robot.
type Status struct {
	DeviceID        string        `json:"device_id,omitempty"`
	Address         string        `json:"address,omitempty"`
	Connection      session.State `json:"connection"`
	Control         control.State `json:"control"`
	EventsListening bool          `json:"events_listening"`
}

// Status returns the current session summary.
func (r *Robot) Status() Status {
	return Status{
		DeviceID:        r.session.DeviceID(),
		Address:         r.session.Address(),
		Connection:      r.session.State(),
		Control:         r.control.State(),
		EventsListening: r.events.Running(),
	}
}
