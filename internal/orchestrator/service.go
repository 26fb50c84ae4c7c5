package orchestrator

import (
	"context"
	"fmt"

	"github.com/gseamans/midimacro/internal/action"
	"github.com/gseamans/midimacro/internal/macro"
	"github.com/gseamans/midimacro/internal/midi"
	"github.com/gseamans/midimacro/internal/settings"
)

// Service implements the command surface exposed to the host shell (spec
// §6). It is the seam a host application would call into; this module
// ships it as a plain Go API in place of the original's Tauri command
// bindings, since the host shell itself is out of scope (spec §1).
type Service struct {
	orch     *Orchestrator
	backend  *midi.Backend
	registry *macro.Registry
	settings *settings.Store
	exec     *action.Executor
}

// NewService wires together a full orchestrator stack: registry,
// settings, executor, emitter, MIDI backend, and the orchestrator core.
func NewService(registry *macro.Registry, settingsStore *settings.Store, exec *action.Executor, orch *Orchestrator, backend *midi.Backend) *Service {
	return &Service{
		orch:     orch,
		backend:  backend,
		registry: registry,
		settings: settingsStore,
		exec:     exec,
	}
}

// RegisterMacro upserts a macro, aborting any existing timer for its
// group key first (spec §6 register_macro, §4.6).
func (s *Service) RegisterMacro(m macro.Macro) error {
	s.orch.state.abortTimer(m.GroupKey())
	s.registry.Upsert(m)
	return nil
}

// CancelMacro removes a macro, aborts its group's pending timer, drops
// its before-latch/notifier, and bulk-releases every held input (spec §6
// cancel_macro, §4.6).
func (s *Service) CancelMacro(id string) error {
	m, ok := s.registry.Remove(id)
	if !ok {
		return fmt.Errorf("macro %q not registered", id)
	}
	s.orch.state.reset(m.GroupKey())
	s.exec.ReleaseAll(s.orch.rootCtx)
	return nil
}

// GetMacros returns every registered macro, in registration order.
func (s *Service) GetMacros() []macro.Macro {
	return s.registry.Snapshot()
}

// ExecuteAction bypasses matching and runs one action through the
// executor directly (spec §6 execute_action).
func (s *Service) ExecuteAction(ctx context.Context, kind string, params action.Params) error {
	return s.exec.Execute(ctx, kind, params)
}

// ListMIDIInputs enumerates MIDI input port names (spec §6
// list_midi_inputs).
func (s *Service) ListMIDIInputs() []string {
	return s.backend.ScanPorts()
}

// StartMIDIListening connects to the indexed port and installs the
// orchestrator's raw-message handler as its callback (spec §6
// start_midi_listening).
func (s *Service) StartMIDIListening(portIndex int) error {
	if err := s.backend.StartListening(portIndex, s.orch.HandleRaw); err != nil {
		return err
	}
	s.orch.emit.Status(fmt.Sprintf("Connected to MIDI input %d", portIndex))
	return nil
}

// StopMIDIListening closes the active MIDI connection (spec §6
// stop_midi_listening).
func (s *Service) StopMIDIListening() {
	s.backend.StopListening()
	s.orch.emit.Status("MIDI connection closed")
}

// GetCursorPosition returns the current OS cursor position (spec §6
// get_cursor_position).
func (s *Service) GetCursorPosition(ctx context.Context) (x, y int32, err error) {
	return s.exec.CursorPosition(ctx)
}

// GetGlobalSettings returns the current tunables (spec §6
// get_global_settings).
func (s *Service) GetGlobalSettings() settings.Settings {
	return s.settings.Get()
}

// UpdateGlobalSettings replaces the tunables wholesale and persists them
// (spec §6 update_global_settings).
func (s *Service) UpdateGlobalSettings(next settings.Settings) error {
	return s.settings.Update(next)
}
