package events

import "context"

const InitializeWebHook = "initialize_web_hook"

// Sender delivers a named event to the external hook runner. Delivery is best
// effort; callers do not wait for any acknowledgement beyond the write itself.
type Sender interface {
	Send(ctx context.Context, event string, payload map[string]any) error
}
