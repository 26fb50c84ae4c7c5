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

func newTestService(t *testing.T) (*Service, *action.RecordingInjector) {
	t.Helper()
	registry := macro.NewRegistry()
	store := settings.NewStoreAt(t.TempDir()+"/settings.json", settings.Default())
	injector := action.NewRecordingInjector()
	exec := action.NewExecutor(injector, action.NewState())
	orch := New(registry, store, exec, emitter.New())
	t.Cleanup(orch.Close)
	return NewService(registry, store, exec, orch, nil), injector
}

func TestServiceRegisterAndGetMacros(t *testing.T) {
	svc, _ := newTestService(t)
	m := macro.Macro{ID: "m1", MIDIChannel: 1, MIDINote: 60}
	if err := svc.RegisterMacro(m); err != nil {
		t.Fatalf("RegisterMacro: %v", err)
	}
	got := svc.GetMacros()
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("GetMacros() = %v, want [m1]", got)
	}
}

func TestServiceCancelMacroReleasesHeldInputs(t *testing.T) {
	svc, injector := newTestService(t)
	m := macro.Macro{
		ID:          "m1",
		MIDIChannel: 1,
		MIDINote:    60,
		Actions:     []macro.Action{{Kind: macro.KeyPress, Params: macro.ActionParams{Key: strp("a"), Hold: boolp(true)}}},
	}
	if err := svc.RegisterMacro(m); err != nil {
		t.Fatalf("RegisterMacro: %v", err)
	}

	svc.orch.HandleRaw(noteOn(1, 60, 127), 0)
	time.Sleep(30 * time.Millisecond)
	if !containsCall(injector.Calls, "press:a") {
		t.Fatalf("expected the key to have been pressed, got %v", injector.Calls)
	}

	if err := svc.CancelMacro("m1"); err != nil {
		t.Fatalf("CancelMacro: %v", err)
	}
	if !containsCall(injector.Calls, "release:a") {
		t.Fatalf("expected CancelMacro to release the held key, got %v", injector.Calls)
	}
	if _, ok := svc.registry.Get("m1"); ok {
		t.Fatal("expected macro to be removed from the registry")
	}
}

func TestServiceCancelUnknownMacro(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.CancelMacro("missing"); err == nil {
		t.Fatal("expected an error cancelling an unregistered macro")
	}
}

func TestServiceExecuteActionBypassesMatching(t *testing.T) {
	svc, injector := newTestService(t)
	err := svc.ExecuteAction(context.Background(), "KeyPress", action.Params{Key: strp("z")})
	if err != nil {
		t.Fatalf("ExecuteAction: %v", err)
	}
	if !containsCall(injector.Calls, "click:z") {
		t.Fatalf("expected a click, got %v", injector.Calls)
	}
}

func TestServiceGlobalSettingsRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	next := settings.Settings{MacroTriggerDelayMs: 42, EnableMacroConflictPrevention: false, DefaultTimeoutMs: 999}
	if err := svc.UpdateGlobalSettings(next); err != nil {
		t.Fatalf("UpdateGlobalSettings: %v", err)
	}
	got := svc.GetGlobalSettings()
	if got != next {
		t.Fatalf("GetGlobalSettings() = %+v, want %+v", got, next)
	}
}
