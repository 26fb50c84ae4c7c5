// Package emitter publishes raw MIDI events and macro-trigger
// notifications to the outer shell (spec §2, §6). It is a small
// non-blocking pub/sub broadcaster: a slow subscriber drops events rather
// than stalling a publisher, since the MIDI callback and orchestrator
// tasks must never block on a consumer (spec §5).
package emitter

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatusEvent mirrors the "midi-status" event (spec §6).
type StatusEvent struct {
	Message string
}

// MIDIEvent mirrors the "rust-midi-event" event (spec §6), renamed for
// this module since there is no Rust side left to name it after.
type MIDIEvent struct {
	Status     byte
	Data1      byte
	Data2      byte
	Timestamp  int64
	TypeName   string
	Channel    uint8
	Note       *uint8
	Velocity   *uint8
	Controller *uint8
	Value      *uint8
}

// MacroTriggerEvent mirrors the "macro-trigger" event (spec §6).
// CorrelationID (expansion) is a fresh UUID per announcement. No event
// for the completion of the after-phase is published, so nothing else
// carries this id.
type MacroTriggerEvent struct {
	MacroID       string
	MacroName     string
	GroupID       string
	TriggeredAtMs int64
	CorrelationID string
}

// Event is the sum type delivered on a subscriber channel; exactly one of
// its fields is non-nil.
type Event struct {
	Status  *StatusEvent
	MIDI    *MIDIEvent
	Trigger *MacroTriggerEvent
}

// Emitter is a non-blocking broadcaster to any number of subscribers.
type Emitter struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// New creates an emitter with no subscribers.
func New() *Emitter {
	return &Emitter{subs: make(map[int]chan Event)}
}

// Subscribe registers a new buffered channel and returns it along with an
// unsubscribe function.
func (e *Emitter) Subscribe(buffer int) (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.next
	e.next++
	ch := make(chan Event, buffer)
	e.subs[id] = ch
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

func (e *Emitter) publish(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			// Drop: a slow subscriber must never stall a publisher that
			// may itself be running on the real-time MIDI callback path.
		}
	}
}

// Status publishes a midi-status event.
func (e *Emitter) Status(message string) {
	e.publish(Event{Status: &StatusEvent{Message: message}})
}

// MIDI publishes a raw MIDI event.
func (e *Emitter) MIDI(ev MIDIEvent) {
	e.publish(Event{MIDI: &ev})
}

// MacroTrigger publishes a macro-trigger event, stamping the current
// epoch-ms timestamp and a fresh correlation id.
func (e *Emitter) MacroTrigger(macroID, macroName, groupID string) MacroTriggerEvent {
	ev := MacroTriggerEvent{
		MacroID:       macroID,
		MacroName:     macroName,
		GroupID:       groupID,
		TriggeredAtMs: time.Now().UnixMilli(),
		CorrelationID: uuid.NewString(),
	}
	e.publish(Event{Trigger: &ev})
	return ev
}
