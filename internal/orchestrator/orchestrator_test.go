package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/gseamans/midimacro/internal/action"
	"github.com/gseamans/midimacro/internal/emitter"
	"github.com/gseamans/midimacro/internal/macro"
	"github.com/gseamans/midimacro/internal/settings"
)

func u8(v uint8) *uint8    { return &v }
func u32(v uint32) *uint32 { return &v }
func strp(s string) *string { return &s }

func newTestOrchestrator(t *testing.T, delayMs int) (*Orchestrator, *macro.Registry, *action.RecordingInjector) {
	t.Helper()
	registry := macro.NewRegistry()
	store := settings.NewStoreAt(t.TempDir()+"/settings.json", settings.Default())
	if err := store.Update(settings.Settings{MacroTriggerDelayMs: delayMs}); err != nil {
		t.Fatalf("settings.Update: %v", err)
	}
	injector := action.NewRecordingInjector()
	exec := action.NewExecutor(injector, action.NewState())
	emit := emitter.New()
	orch := New(registry, store, exec, emit)
	t.Cleanup(orch.Close)
	return orch, registry, injector
}

func noteOn(channel, note, velocity byte) []byte {
	return []byte{0x90 | (channel - 1), note, velocity}
}

func containsCall(calls []string, want string) bool {
	for _, c := range calls {
		if c == want {
			return true
		}
	}
	return false
}

// A single CC/note trigger with no timeout runs its main actions once and
// arms no after-phase timer (spec §8 scenario 1).
func TestSingleTriggerNoTimeoutRunsOnce(t *testing.T) {
	orch, registry, injector := newTestOrchestrator(t, 0)
	registry.Upsert(macro.Macro{
		ID:          "m1",
		MIDIChannel: 1,
		MIDINote:    60,
		Actions:     []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("a"), Hold: boolp(true)}}},
	})

	orch.HandleRaw(noteOn(1, 60, 127), 0)
	time.Sleep(50 * time.Millisecond)

	presses := 0
	for _, c := range injector.Calls {
		if c == "press:a" {
			presses++
		}
	}
	if presses != 1 {
		t.Fatalf("expected press:a exactly once, got %v", injector.Calls)
	}
	if groups := orch.state.activeGroups(); len(groups) != 0 {
		t.Fatalf("expected no active timers, got %v", groups)
	}
}

// Re-triggering the same group before its timeout fires cancels the
// pending after-phase and restarts the window (spec §8 scenario 2).
func TestRetriggerResetsTimer(t *testing.T) {
	orch, registry, injector := newTestOrchestrator(t, 0)
	registry.Upsert(macro.Macro{
		ID:           "m1",
		MIDIChannel:  1,
		MIDINote:     60,
		Actions:      []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("a"), Hold: boolp(true)}}},
		AfterActions: []macro.Action{{Kind: macro.KeyRelease, Params: macro.ActionParams{Key: strp("a")}}},
		TimeoutMs:    u32(120),
	})

	orch.HandleRaw(noteOn(1, 60, 127), 0)
	time.Sleep(60 * time.Millisecond) // well before the 120ms timeout

	orch.HandleRaw(noteOn(1, 60, 127), 0) // retrigger: must reset the window
	time.Sleep(90 * time.Millisecond)     // 150ms since the first trigger, 90ms since the second

	if containsCall(injector.Calls, "release:a") {
		t.Fatalf("after-actions ran before the reset timeout elapsed: %v", injector.Calls)
	}

	time.Sleep(80 * time.Millisecond) // now past 170ms since the second trigger
	if !containsCall(injector.Calls, "release:a") {
		t.Fatalf("expected after-actions to have run by now, got %v", injector.Calls)
	}
}

// Five concurrent triggers of the same group press the before-action key
// exactly once (spec §8 scenario 3).
func TestBeforeActionsRunOncePerSession(t *testing.T) {
	orch, registry, injector := newTestOrchestrator(t, 0)
	registry.Upsert(macro.Macro{
		ID:            "m1",
		MIDIChannel:   1,
		MIDINote:      60,
		BeforeActions: []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("b"), Hold: boolp(true)}}},
		Actions:       []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("a"), Hold: boolp(true)}}},
	})

	for i := 0; i < 5; i++ {
		orch.HandleRaw(noteOn(1, 60, 127), 0)
	}
	time.Sleep(80 * time.Millisecond)

	count := 0
	for _, c := range injector.Calls {
		if c == "press:b" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected before-actions to run exactly once, ran %d times: %v", count, injector.Calls)
	}
}

// Triggering a macro in a different group finalizes any other active
// group's after-phase immediately instead of waiting for its timeout
// (spec §8 scenario 4, Glossary "Preemption").
func TestCrossGroupPreemption(t *testing.T) {
	orch, registry, injector := newTestOrchestrator(t, 0)
	registry.Upsert(macro.Macro{
		ID:           "groupA",
		MIDIChannel:  1,
		MIDINote:     60,
		Actions:      []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("a"), Hold: boolp(true)}}},
		AfterActions: []macro.Action{{Kind: macro.KeyRelease, Params: macro.ActionParams{Key: strp("a")}}},
		TimeoutMs:    u32(5000), // long enough that only preemption could finalize it in this test
	})
	registry.Upsert(macro.Macro{
		ID:          "groupB",
		MIDIChannel: 1,
		MIDINote:    61,
		Actions:     []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("c"), Hold: boolp(true)}}},
	})

	orch.HandleRaw(noteOn(1, 60, 127), 0)
	time.Sleep(30 * time.Millisecond)
	orch.HandleRaw(noteOn(1, 61, 127), 0)
	time.Sleep(30 * time.Millisecond)

	if !containsCall(injector.Calls, "release:a") {
		t.Fatalf("expected group A's after-actions to run on preemption, got %v", injector.Calls)
	}
}

// Triggering a second group shortly after the first holds the second
// group's trigger back until the configured inter-group delay has
// elapsed since the most recent trigger of any other group (spec §8
// scenario 5).
func TestInterGroupDebounce(t *testing.T) {
	const delayMs = 150
	orch, registry, injector := newTestOrchestrator(t, delayMs)
	registry.Upsert(macro.Macro{ID: "groupA", MIDIChannel: 1, MIDINote: 60})
	registry.Upsert(macro.Macro{
		ID:          "groupB",
		MIDIChannel: 1,
		MIDINote:    61,
		Actions:     []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("z"), Hold: boolp(true)}}},
	})

	start := time.Now()
	orch.HandleRaw(noteOn(1, 60, 127), 0)
	time.Sleep(50 * time.Millisecond)
	orch.HandleRaw(noteOn(1, 61, 127), 0)

	deadline := start.Add(delayMs * time.Millisecond)
	for time.Now().Before(deadline.Add(-20 * time.Millisecond)) {
		if containsCall(injector.Calls, "press:z") {
			t.Fatalf("group B ran before the debounce window elapsed (elapsed=%v)", time.Since(start))
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(60 * time.Millisecond)
	if !containsCall(injector.Calls, "press:z") {
		t.Fatalf("expected group B to have run after the debounce window, got %v", injector.Calls)
	}
}

// Performing CancelMacro's steps directly (registry removal, group state
// reset, bulk release) releases every held key/button, leaving nothing
// held (spec §8 scenario 6).
func TestCancelMacroReleasesHeldInputs(t *testing.T) {
	orch, registry, injector := newTestOrchestrator(t, 0)
	m := macro.Macro{
		ID:          "m1",
		MIDIChannel: 1,
		MIDINote:    60,
		Actions:     []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("a"), Hold: boolp(true)}}},
	}
	registry.Upsert(m)

	orch.HandleRaw(noteOn(1, 60, 127), 0)
	time.Sleep(30 * time.Millisecond)
	if !containsCall(injector.Calls, "press:a") {
		t.Fatalf("expected the key to have been pressed, got %v", injector.Calls)
	}

	removed, ok := registry.Remove("m1")
	if !ok {
		t.Fatal("expected macro to be registered")
	}
	orch.state.reset(removed.GroupKey())
	orch.exec.ReleaseAll(context.Background())

	if !containsCall(injector.Calls, "release:a") {
		t.Fatalf("expected cancellation to release the held key, got %v", injector.Calls)
	}
}

func boolp(b bool) *bool { return &b }
