package action

import "sync"

// State tracks which keys and mouse buttons the orchestrator currently
// holds down, so cleanup can reliably release everything (spec §4.5,
// §3 "Held-input sets").
type State struct {
	mu      sync.Mutex
	keys    map[string]bool
	buttons map[string]bool
}

// NewState creates an empty input-state tracker.
func NewState() *State {
	return &State{
		keys:    make(map[string]bool),
		buttons: make(map[string]bool),
	}
}

// KeyHeld reports whether key is currently tracked as pressed.
func (s *State) KeyHeld(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key]
}

// SetKeyHeld idempotently marks key as pressed or released.
func (s *State) SetKeyHeld(key string, held bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held {
		s.keys[key] = true
	} else {
		delete(s.keys, key)
	}
}

// ButtonHeld reports whether button is currently tracked as pressed.
func (s *State) ButtonHeld(button string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons[button]
}

// SetButtonHeld idempotently marks button as pressed or released.
func (s *State) SetButtonHeld(button string, held bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held {
		s.buttons[button] = true
	} else {
		delete(s.buttons, button)
	}
}

// HeldKeys returns a snapshot of every key currently tracked as held.
func (s *State) HeldKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	return out
}

// HeldButtons returns a snapshot of every button currently tracked as
// held.
func (s *State) HeldButtons() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.buttons))
	for b := range s.buttons {
		out = append(out, b)
	}
	return out
}
