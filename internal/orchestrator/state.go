package orchestrator

import (
	"context"
	"sync"
	"time"
)

// groupState holds every piece of per-group state the orchestrator owns
// (spec §3: ActiveTimer, BeforeLatch, BeforeNotifier, SessionCounter,
// LastGroupTrigger). Each map has its own mutex; the fixed acquisition
// order when more than one is needed in a single step is registry →
// active-timers → before-latches → before-notifiers → input-state (spec
// §5). Every method below is snapshot-and-drop and takes a single lock,
// except tryLatch, which holds latchesMu and then notifiersMu together in
// that order.
type groupState struct {
	timersMu sync.Mutex
	timers   map[string]context.CancelFunc

	latchesMu sync.Mutex
	latches   map[string]struct{}

	notifiersMu sync.Mutex
	notifiers   map[string]chan struct{}

	sessionsMu sync.Mutex
	sessions   map[string]uint64

	lastTriggerMu sync.Mutex
	lastTrigger   map[string]time.Time
}

func newGroupState() *groupState {
	return &groupState{
		timers:      make(map[string]context.CancelFunc),
		latches:     make(map[string]struct{}),
		notifiers:   make(map[string]chan struct{}),
		sessions:    make(map[string]uint64),
		lastTrigger: make(map[string]time.Time),
	}
}

// nextSession increments and returns the session counter for group.
func (g *groupState) nextSession(group string) uint64 {
	g.sessionsMu.Lock()
	defer g.sessionsMu.Unlock()
	g.sessions[group]++
	return g.sessions[group]
}

// currentSession returns the session counter for group without advancing
// it (used to test staleness).
func (g *groupState) currentSession(group string) uint64 {
	g.sessionsMu.Lock()
	defer g.sessionsMu.Unlock()
	return g.sessions[group]
}

// setTimer installs cancel as group's timer, replacing any existing one
// without cancelling it. Returns the previous cancel func, if any, so the caller can
// decide whether to have run its after-actions before it was replaced.
func (g *groupState) setTimer(group string, cancel context.CancelFunc) (prev context.CancelFunc, hadPrev bool) {
	g.timersMu.Lock()
	defer g.timersMu.Unlock()
	prev, hadPrev = g.timers[group]
	g.timers[group] = cancel
	return prev, hadPrev
}

// abortTimer cancels and removes group's timer, if any, without running
// its after-actions. Returns whether one existed.
func (g *groupState) abortTimer(group string) bool {
	g.timersMu.Lock()
	defer g.timersMu.Unlock()
	cancel, ok := g.timers[group]
	if !ok {
		return false
	}
	cancel()
	delete(g.timers, group)
	return true
}

// clearTimer removes group's timer entry without cancelling it (used once
// a timer has already fired and is cleaning up after itself).
func (g *groupState) clearTimer(group string) {
	g.timersMu.Lock()
	defer g.timersMu.Unlock()
	delete(g.timers, group)
}

// activeGroups returns every group key that currently has a pending
// after-phase timer (spec §4.3 step 2: "currently-active group key").
func (g *groupState) activeGroups() []string {
	g.timersMu.Lock()
	defer g.timersMu.Unlock()
	out := make([]string, 0, len(g.timers))
	for k := range g.timers {
		out = append(out, k)
	}
	return out
}

// tryLatch atomically sets the before-latch for group and installs its
// one-shot notifier in the same critical section (spec §4.3 step 5:
// "atomically attempt to set BeforeLatch", so a concurrent entrant either
// finds the latch absent and owns the before phase, or finds it held
// with a notifier already in place to wait on — never a window where the
// latch is held but no notifier exists yet). Acquires latchesMu then
// notifiersMu, matching the §5 lock order. Returns the fresh notifier and
// true if the latch was absent; returns false if another trigger already
// holds it.
func (g *groupState) tryLatch(group string) (chan struct{}, bool) {
	g.latchesMu.Lock()
	defer g.latchesMu.Unlock()
	if _, exists := g.latches[group]; exists {
		return nil, false
	}
	g.latches[group] = struct{}{}

	ch := make(chan struct{})
	g.notifiersMu.Lock()
	g.notifiers[group] = ch
	g.notifiersMu.Unlock()

	return ch, true
}

func (g *groupState) hasLatch(group string) bool {
	g.latchesMu.Lock()
	defer g.latchesMu.Unlock()
	_, ok := g.latches[group]
	return ok
}

func (g *groupState) clearLatch(group string) {
	g.latchesMu.Lock()
	defer g.latchesMu.Unlock()
	delete(g.latches, group)
}

func (g *groupState) getNotifier(group string) (chan struct{}, bool) {
	g.notifiersMu.Lock()
	defer g.notifiersMu.Unlock()
	ch, ok := g.notifiers[group]
	return ch, ok
}

func (g *groupState) clearNotifier(group string) {
	g.notifiersMu.Lock()
	defer g.notifiersMu.Unlock()
	delete(g.notifiers, group)
}

// mostRecentOtherTrigger returns the latest LastGroupTrigger timestamp
// among every key other than group (spec §4.3 step 4).
func (g *groupState) mostRecentOtherTrigger(group string) (time.Time, bool) {
	g.lastTriggerMu.Lock()
	defer g.lastTriggerMu.Unlock()
	var best time.Time
	found := false
	for k, t := range g.lastTrigger {
		if k == group {
			continue
		}
		if !found || t.After(best) {
			best = t
			found = true
		}
	}
	return best, found
}

func (g *groupState) setLastTrigger(group string, t time.Time) {
	g.lastTriggerMu.Lock()
	defer g.lastTriggerMu.Unlock()
	g.lastTrigger[group] = t
}

// reset drops every piece of state for group: used by CancelMacro/registry
// removal so a removed group leaves nothing behind.
func (g *groupState) reset(group string) {
	g.abortTimer(group)
	g.clearLatch(group)
	g.clearNotifier(group)
}
