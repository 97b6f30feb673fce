package audit

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Event is one audit record. Target carries the transaction or binding id,
// never the individual id; personally identifying values stay out of logs.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Flow      string    `json:"flow"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

var auditLogger = log.Output(os.Stdout).With().Str("channel", "audit").Logger()

// Log records an audit event for a flow action.
func Log(flow, action, target string, success bool, err error) {
	event := Event{
		Timestamp: time.Now().UTC(),
		Flow:      flow,
		Action:    action,
		Target:    target,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}

	auditLogger.Log().
		Time("timestamp", event.Timestamp).
		Str("flow", event.Flow).
		Str("action", event.Action).
		Str("target", event.Target).
		Bool("success", event.Success).
		Str("error", event.Error).
		Msg("audit")
}
