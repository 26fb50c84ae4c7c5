// Command macrod is a developer console for the macro orchestrator: it
// lists MIDI input ports, connects to one, and streams decoded MIDI and
// macro-trigger events as they happen. It stands in for the host
// application shell (spec §1 explicitly puts the shell out of scope),
// exercising the Service command surface the same way a real host would.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gseamans/midimacro/internal/action"
	"github.com/gseamans/midimacro/internal/debug"
	"github.com/gseamans/midimacro/internal/emitter"
	"github.com/gseamans/midimacro/internal/macro"
	"github.com/gseamans/midimacro/internal/midi"
	"github.com/gseamans/midimacro/internal/orchestrator"
	"github.com/gseamans/midimacro/internal/settings"
)

func main() {
	debug.Enable()

	settingsStore := settings.NewStore()
	registry := macro.NewRegistry()
	emit := emitter.New()
	injector := action.NewRecordingInjector()
	state := action.NewState()
	exec := action.NewExecutor(injector, state)
	orch := orchestrator.New(registry, settingsStore, exec, emit)
	defer orch.Close()

	backend := midi.NewBackend()
	svc := orchestrator.NewService(registry, settingsStore, exec, orch, backend)

	loadDemoMacros(registry)

	fmt.Println("macrod")
	fmt.Println("MIDI macro trigger orchestrator console")
	fmt.Println("")

	m := newModel(svc, emit)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// loadDemoMacros registers a couple of illustrative macros so the console
// has something to trigger against out of the box.
func loadDemoMacros(registry *macro.Registry) {
	value := uint8(127)
	duration := uint32(50)
	timeout := uint32(2000)

	registry.Upsert(macro.Macro{
		ID:          "demo-note-60",
		Name:        "Middle C flash",
		MIDIChannel: 1,
		MIDINote:    60,
		MIDIValue:   nil,
		Actions: []macro.Action{
			{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strPtr("a")}},
			{Kind: macro.Delay, Params: macro.ActionParams{Duration: &duration}},
			{Kind: macro.KeyRelease, Params: macro.ActionParams{Key: strPtr("a")}},
		},
		TimeoutMs: &timeout,
	})

	registry.Upsert(macro.Macro{
		ID:          "demo-cc-1-127",
		Name:        "Mod wheel max",
		MIDIChannel: 1,
		MIDINote:    1,
		MIDIValue:   &value,
		Actions: []macro.Action{
			{Kind: macro.MouseClick, Params: macro.ActionParams{Button: strPtr("left")}},
		},
	})
}

func strPtr(s string) *string { return &s }
