package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register the MIDI driver

	"github.com/gseamans/midimacro/internal/apperr"
)

// RawHandler receives one raw MIDI message as it arrives off the wire.
// Implementations must not block — this is called directly from the
// driver's real-time callback (spec §5, MIDI callback contract).
type RawHandler func(data []byte, timestampMs int32)

// Backend enumerates MIDI input ports and manages the single active
// listening connection. It is the external collaborator named in spec §1
// ("the MIDI backend that enumerates ports and delivers raw messages");
// this is a concrete adapter over gitlab.com/gomidi/midi/v2 so that
// ListMIDIInputs/StartMIDIListening/StopMIDIListening (spec §6) have a
// real implementation, generalized from the teacher's DeviceManager
// (midi/manager.go) which connected to a single typed Controller instead
// of forwarding raw bytes.
type Backend struct {
	mu       sync.Mutex
	ports    []drivers.In // cached by ScanPorts, indexed by position
	stopFunc func()
}

// NewBackend creates an idle backend.
func NewBackend() *Backend {
	return &Backend{}
}

// ScanPorts enumerates MIDI input ports and caches them so a later
// StartListening(index) can resolve the index (spec §6 list_midi_inputs
// caches (name,index) pairs).
func (b *Backend) ScanPorts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ports = gomidi.GetInPorts()
	names := make([]string, len(b.ports))
	for i, p := range b.ports {
		names[i] = p.String()
	}
	return names
}

// StartListening closes any prior connection, connects to the port at
// index (as cached by the last ScanPorts call), and installs handler as
// the raw-message callback (spec §6 start_midi_listening).
func (b *Backend) StartListening(index int, handler RawHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopFunc != nil {
		b.stopFunc()
		b.stopFunc = nil
	}

	if index < 0 || index >= len(b.ports) {
		return fmt.Errorf("%w: MIDI port index %d out of range (%d ports available)", apperr.ErrValidation, index, len(b.ports))
	}
	port := b.ports[index]

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampMs int32) {
		handler([]byte(msg), timestampMs)
	})
	if err != nil {
		return fmt.Errorf("%w: open MIDI input %q: %w", apperr.ErrPlatform, port.String(), err)
	}
	b.stopFunc = stop
	return nil
}

// StopListening closes the active connection, if any (spec §6
// stop_midi_listening).
func (b *Backend) StopListening() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopFunc != nil {
		b.stopFunc()
		b.stopFunc = nil
	}
}
