// Package match implements the pure decision of which registered macros a
// decoded MIDI message triggers (spec §4.2).
package match

import (
	"github.com/gseamans/midimacro/internal/macro"
	"github.com/gseamans/midimacro/internal/midi"
)

// Matches returns, in registry insertion order, every macro that msg
// triggers.
//
// Policy (spec §4.2, and the Open Question in §9): for ControlChange, a
// macro only matches when midi_value is set and equals data2 — a missing
// midi_value never matches a CC, deliberately, since CC fires on every
// knob tick and a wildcard CC macro would fire continuously. For
// NoteOn/NoteOff, a missing midi_value matches any velocity. All other
// kinds never match.
func Matches(msg midi.Message, snapshot []macro.Macro) []macro.Macro {
	var out []macro.Macro
	for _, m := range snapshot {
		if m.MIDIChannel != msg.Channel {
			continue
		}
		if macroMatches(m, msg) {
			out = append(out, m)
		}
	}
	return out
}

func macroMatches(m macro.Macro, msg midi.Message) bool {
	switch msg.Kind {
	case midi.ControlChange:
		if m.MIDINote != msg.Data1 {
			return false
		}
		return m.MIDIValue != nil && *m.MIDIValue == msg.Data2
	case midi.NoteOn, midi.NoteOff:
		if m.MIDINote != msg.Data1 {
			return false
		}
		return m.MIDIValue == nil || *m.MIDIValue == msg.Data2
	default:
		return false
	}
}
