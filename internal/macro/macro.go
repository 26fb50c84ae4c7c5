// Package macro defines the macro data model: actions, macro
// configuration, and the group-key rule that ties macros together into
// shared before/main/after sessions.
package macro

// ActionKind is the tagged-variant discriminant for Action (spec §3, §9 —
// a flat kind+params struct in place of polymorphic action objects).
type ActionKind string

const (
	MouseMove      ActionKind = "MouseMove"
	MouseClick     ActionKind = "MouseClick"
	KeyPress       ActionKind = "KeyPress"
	KeyRelease     ActionKind = "KeyRelease"
	KeyCombination ActionKind = "KeyCombination"
	MouseRelease   ActionKind = "MouseRelease"
	MouseDrag      ActionKind = "MouseDrag"
	Delay          ActionKind = "Delay"
)

// ActionParams carries every optional field any action kind might need.
// Which fields are required is a function of Kind and is validated at
// execution time (spec §3 invariant), not at parse time.
type ActionParams struct {
	X        *int32   `json:"x,omitempty"`
	Y        *int32   `json:"y,omitempty"`
	Button   *string  `json:"button,omitempty"`
	Key      *string  `json:"key,omitempty"`
	Keys     []string `json:"keys,omitempty"`
	Relative *bool    `json:"relative,omitempty"`
	Hold     *bool    `json:"hold,omitempty"`
	Duration *uint32  `json:"duration,omitempty"`
	Amount   *int32   `json:"amount,omitempty"`
}

// Action is one step of a before/main/after sequence.
type Action struct {
	Kind   ActionKind   `json:"action_type"`
	Params ActionParams `json:"action_params"`
}

// Macro is a registered trigger definition (spec §3).
type Macro struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	GroupID       *string  `json:"groupId,omitempty"`
	MIDIChannel   uint8    `json:"midi_channel"`
	MIDINote      uint8    `json:"midi_note"`
	MIDIValue     *uint8   `json:"midi_value,omitempty"`
	Actions       []Action `json:"actions"`
	BeforeActions []Action `json:"before_actions,omitempty"`
	AfterActions  []Action `json:"after_actions,omitempty"`
	TimeoutMs     *uint32  `json:"timeout_ms,omitempty"`
}

// GroupKey is the effective group key used to coalesce macros that share
// before/main/after state: GroupID if set, else ID (spec §3, Glossary).
func (m Macro) GroupKey() string {
	if m.GroupID != nil && *m.GroupID != "" {
		return *m.GroupID
	}
	return m.ID
}

// HasTimeout reports whether this macro arms an after-phase timer.
func (m Macro) HasTimeout() bool {
	return m.TimeoutMs != nil && *m.TimeoutMs > 0
}
