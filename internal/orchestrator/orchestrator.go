// Package orchestrator implements the Macro Trigger Orchestrator (spec
// §4.3): the concurrent state machine that turns a decoded MIDI message
// into before/main/after action phases, coordinated per group with
// preemption, session invalidation, and before-phase deduplication.
package orchestrator

import (
	"context"
	"time"

	"github.com/gseamans/midimacro/internal/action"
	"github.com/gseamans/midimacro/internal/debug"
	"github.com/gseamans/midimacro/internal/emitter"
	"github.com/gseamans/midimacro/internal/macro"
	"github.com/gseamans/midimacro/internal/match"
	"github.com/gseamans/midimacro/internal/midi"
	"github.com/gseamans/midimacro/internal/settings"
)

// Orchestrator wires the registry, settings, executor and emitter
// together and runs the trigger protocol from spec §4.3.
type Orchestrator struct {
	registry *macro.Registry
	settings *settings.Store
	exec     *action.Executor
	emit     *emitter.Emitter
	state    *groupState

	rootCtx context.Context
	cancel  context.CancelFunc
}

// New creates an orchestrator and starts its main-thread executor worker.
func New(registry *macro.Registry, settingsStore *settings.Store, exec *action.Executor, emit *emitter.Emitter) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		registry: registry,
		settings: settingsStore,
		exec:     exec,
		emit:     emit,
		state:    newGroupState(),
		rootCtx:  ctx,
		cancel:   cancel,
	}
	go exec.Run(ctx)
	return o
}

// Close stops the executor worker and any in-flight timers.
func (o *Orchestrator) Close() {
	o.cancel()
}

// HandleRaw is the MIDI callback entry point (spec §5): decode, snapshot
// the registry under a short lock, find matches, spawn one orchestrator
// task per match, and emit the raw event. It must not block and never
// awaits. Settings are not read here; each spawned task reads them when
// it applies the inter-group debounce.
func (o *Orchestrator) HandleRaw(data []byte, timestampMs int32) {
	msg, ok := midi.Decode(data)
	if !ok {
		return // malformed message: dropped silently (spec §7)
	}

	snapshot := o.registry.Snapshot()
	matches := match.Matches(msg, snapshot)

	for _, m := range matches {
		mCopy := m
		go o.runTrigger(mCopy)
	}

	o.emit.MIDI(toMIDIEvent(msg, timestampMs))
}

func toMIDIEvent(msg midi.Message, timestampMs int32) emitter.MIDIEvent {
	ev := emitter.MIDIEvent{
		Status:    msg.Status,
		Data1:     msg.Data1,
		Data2:     msg.Data2,
		Timestamp: int64(timestampMs),
		TypeName:  string(msg.Kind),
		Channel:   msg.Channel,
	}
	switch msg.Kind {
	case midi.NoteOn, midi.NoteOff:
		note, vel := msg.Data1, msg.Data2
		ev.Note, ev.Velocity = &note, &vel
	case midi.ControlChange:
		ctrl, val := msg.Data1, msg.Data2
		ev.Controller, ev.Value = &ctrl, &val
	}
	return ev
}

// runTrigger executes the full seven-step protocol from spec §4.3 for one
// matched macro. It runs on its own goroutine, spawned fire-and-forget by
// HandleRaw.
func (o *Orchestrator) runTrigger(m macro.Macro) {
	group := m.GroupKey()
	session := o.state.nextSession(group)
	ctx := o.rootCtx

	// Step 1: announce trigger.
	o.emit.MacroTrigger(m.ID, m.Name, group)

	// Step 2: preempt other active groups.
	o.preemptOtherGroups(ctx, group)

	// Step 3: reset this group's timer without running its after-actions.
	o.state.abortTimer(group)

	// Step 4: inter-group debounce.
	if !o.applyDebounce(ctx, group, session) {
		return
	}

	// Step 5: before-phase coordination.
	if !o.coordinateBefore(ctx, group, session, m) {
		return
	}

	// Step 6: main-phase execution.
	o.runPhase(ctx, m.Actions)

	// Step 7: arm after-timer if this macro has a timeout. Without one,
	// nothing will ever clear the before-latch later, so drop it now —
	// the next trigger for this group must re-run before-actions rather
	// than finding a stale latch and skipping them (spec §4.3: main-done
	// with no timeout goes straight to Idle, which carries no latch).
	if m.HasTimeout() {
		o.armAfterTimer(group, m, session)
	} else {
		o.state.clearLatch(group)
		o.state.clearNotifier(group)
	}
}

// preemptOtherGroups finalizes every other active group before this one's
// before/main phases run (spec §4.3 step 2, Glossary "Preemption").
func (o *Orchestrator) preemptOtherGroups(ctx context.Context, group string) {
	for _, other := range o.state.activeGroups() {
		if other == group {
			continue
		}
		owner, ok := o.findGroupOwner(other)
		if !ok || len(owner.AfterActions) == 0 {
			continue
		}
		o.state.abortTimer(other)
		o.state.clearLatch(other)
		o.state.clearNotifier(other)
		o.runPhase(ctx, owner.AfterActions)
	}
}

// findGroupOwner returns a registered macro whose group key is group, if
// any (used to resolve after-actions for a group key during preemption).
func (o *Orchestrator) findGroupOwner(group string) (macro.Macro, bool) {
	for _, m := range o.registry.Snapshot() {
		if m.GroupKey() == group {
			return m, true
		}
	}
	return macro.Macro{}, false
}

// applyDebounce enforces the inter-group trigger delay (spec §4.3 step
// 4). Returns false if this trigger should be abandoned because a newer
// session for group has since started.
func (o *Orchestrator) applyDebounce(ctx context.Context, group string, session uint64) bool {
	delay := time.Duration(o.settings.Get().MacroTriggerDelayMs) * time.Millisecond
	if delay > 0 {
		if last, ok := o.state.mostRecentOtherTrigger(group); ok {
			elapsed := time.Since(last)
			if elapsed < delay {
				remaining := delay - elapsed
				select {
				case <-time.After(remaining):
				case <-ctx.Done():
					return false
				}
			}
		}
	}
	o.state.setLastTrigger(group, time.Now())
	return o.state.currentSession(group) == session
}

// coordinateBefore runs the before-phase exactly once per (group,
// session) and lets concurrent triggers wait for it (spec §4.3 step 5).
// Returns false if this trigger should be abandoned.
func (o *Orchestrator) coordinateBefore(ctx context.Context, group string, session uint64, m macro.Macro) bool {
	if notifier, ok := o.state.tryLatch(group); ok {
		o.runPhase(ctx, m.BeforeActions)
		close(notifier)
		o.state.clearNotifier(group)
		return true
	}

	if notifier, ok := o.state.getNotifier(group); ok {
		select {
		case <-notifier:
		case <-ctx.Done():
			return false
		}
		return o.state.currentSession(group) == session
	}

	// Latch present, no notifier: before-actions already finished earlier
	// in this session (spec §4.3 step 5, third bullet).
	return true
}

// runPhase executes a before/main/after action sequence in order. Delay
// suspends the phase inline; every other kind dispatches to the executor.
// Errors are logged and do not abort the remaining sequence, matching the
// source's behavior of reporting and continuing.
func (o *Orchestrator) runPhase(ctx context.Context, actions []macro.Action) {
	for _, a := range actions {
		if a.Kind == macro.Delay {
			if a.Params.Duration == nil {
				debug.Log("orchestrator", "Delay action missing duration")
				continue
			}
			select {
			case <-time.After(time.Duration(*a.Params.Duration) * time.Millisecond):
			case <-ctx.Done():
				return
			}
			continue
		}
		if err := o.exec.Execute(ctx, string(a.Kind), toExecParams(a.Params)); err != nil {
			debug.Log("orchestrator", "action %s failed: %v", a.Kind, err)
		}
	}
}

// armAfterTimer spawns the cancellable after-phase task (spec §4.3 step
// 7) and stores its cancel func as ActiveTimer[group].
func (o *Orchestrator) armAfterTimer(group string, m macro.Macro, session uint64) {
	ctx, cancel := context.WithCancel(o.rootCtx)
	o.state.setTimer(group, cancel)

	timeoutMs := *m.TimeoutMs
	go func() {
		select {
		case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		case <-ctx.Done():
			return
		}
		if o.state.currentSession(group) != session {
			return
		}
		if len(m.AfterActions) > 0 {
			o.runPhase(ctx, m.AfterActions)
		}
		o.state.clearTimer(group)
		o.state.clearLatch(group)
		o.state.clearNotifier(group)
	}()
}

func toExecParams(p macro.ActionParams) action.Params {
	return action.Params{
		X:        p.X,
		Y:        p.Y,
		Button:   p.Button,
		Key:      p.Key,
		Keys:     p.Keys,
		Relative: p.Relative != nil && *p.Relative,
		Hold:     p.Hold != nil && *p.Hold,
		Duration: derefU32(p.Duration),
		Amount:   derefI32(p.Amount),
	}
}

func derefU32(p *uint32) uint32 {
	if p == nil {
		return 0
	}
	return *p
}

func derefI32(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
