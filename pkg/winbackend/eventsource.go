package winbackend

import "github.com/brickingsoft/wincp/pkg/eventsource"

// EventSource is the user-level semaphore + waiter list operations
// wait_event_source/notify_event_source/close_event_source act on
// (spec §4.7). It is a thin re-export so callers building op state don't
// need to import pkg/eventsource directly.
type EventSource = eventsource.Source

// NewEventSource constructs a fresh event source.
func NewEventSource() *EventSource {
	return eventsource.New()
}
