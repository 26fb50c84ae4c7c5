// Package midi decodes raw MIDI bytes into typed records and wires a real
// port transport on top of gitlab.com/gomidi/midi/v2 (the teacher's MIDI
// stack), generalized from the teacher's per-controller note/pad
// listeners (midi/keyboard.go, midi/manager.go in the original tree) to
// forwarding raw bytes for the decoder above to classify.
package midi

// Kind classifies a decoded message by its status top nibble (spec §4.1).
type Kind string

const (
	NoteOff       Kind = "noteoff"
	NoteOn        Kind = "noteon"
	Aftertouch    Kind = "aftertouch"
	ControlChange Kind = "controlchange"
	ProgramChange Kind = "programchange"
	ChannelPress  Kind = "channelpressure"
	PitchBend     Kind = "pitchbend"
	Other         Kind = "other"
)

// Message is the decoded record yielded by Decode.
type Message struct {
	Status  byte
	Kind    Kind
	Channel uint8 // 1-16
	Data1   byte
	Data2   byte
}

// Decode parses a raw MIDI callback payload into a Message. It yields
// false when the slice is shorter than 3 bytes (spec §4.1) — the
// real-time callback drops anything shorter rather than erroring (§7).
func Decode(b []byte) (Message, bool) {
	if len(b) < 3 {
		return Message{}, false
	}
	status := b[0]
	return Message{
		Status:  status,
		Kind:    classify(status),
		Channel: (status & 0x0F) + 1,
		Data1:   b[1],
		Data2:   b[2],
	}, true
}

func classify(status byte) Kind {
	switch status & 0xF0 {
	case 0x80:
		return NoteOff
	case 0x90:
		return NoteOn
	case 0xA0:
		return Aftertouch
	case 0xB0:
		return ControlChange
	case 0xC0:
		return ProgramChange
	case 0xD0:
		return ChannelPress
	case 0xE0:
		return PitchBend
	default:
		return Other
	}
}
