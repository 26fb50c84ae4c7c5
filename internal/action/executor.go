package action

import (
	"context"
	"fmt"
	"time"

	"github.com/gseamans/midimacro/internal/apperr"
)

// ErrDelayDispatched is returned if Delay ever reaches the executor: it
// must be consumed by the phase loop that suspends the task, never
// dispatched here (spec §4.4, §7 — a programming error).
var ErrDelayDispatched = fmt.Errorf("%w: Delay action dispatched to executor (programming error)", apperr.ErrValidation)

// Kind mirrors macro.ActionKind without importing the macro package, so
// this package has no dependency on the registry/session types above it.
type Kind = string

// Params is the flat optional-field bag an action kind reads from.
// X, Y, Button and Key are pointers so "absent" and "zero value" are
// distinguishable; Relative, Hold, Duration and Amount are plain values
// where absent reads as false/zero. Callers typically convert from
// macro.ActionParams.
type Params struct {
	X        *int32
	Y        *int32
	Button   *string
	Key      *string
	Keys     []string
	Relative bool
	Hold     bool
	Duration uint32
	Amount   int32
}

// dispatchRequest is one unit of work handed to the single main-thread
// worker goroutine — the Go stand-in for "run_on_main_thread" plus a
// tokio::sync::oneshot reply, per spec §4.4's platform note. Modeled on
// the teacher's stopChan/select idiom (sequencer.go) rather than on any
// particular platform API.
type dispatchRequest struct {
	fn    func(ctx context.Context) error
	reply chan error
}

// Executor synthesizes one OS input event per Action (spec §4.4). All
// work is marshalled onto a single dedicated goroutine so that, on
// platforms whose input APIs require main-thread access, there is exactly
// one thread ever touching the Injector.
type Executor struct {
	injector Injector
	state    *State
	reqCh    chan dispatchRequest
}

// NewExecutor creates an executor; it does not start the main-thread
// worker. Call Run in its own goroutine (typically from the orchestrator's wiring
// code) before dispatching any action.
func NewExecutor(injector Injector, state *State) *Executor {
	return &Executor{
		injector: injector,
		state:    state,
		reqCh:    make(chan dispatchRequest),
	}
}

// Run is the main-thread worker loop. It exits when ctx is cancelled.
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case req := <-e.reqCh:
			req.reply <- req.fn(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch runs fn on the main-thread worker and waits for it to
// complete, or for ctx to be cancelled first (a cancellation checkpoint,
// spec §5 suspension point (f)).
func (e *Executor) dispatch(ctx context.Context, fn func(ctx context.Context) error) error {
	reply := make(chan error, 1)
	req := dispatchRequest{fn: fn, reply: reply}
	select {
	case e.reqCh <- req:
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", apperr.ErrCancelled, ctx.Err())
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", apperr.ErrCancelled, ctx.Err())
	}
}

// Execute performs one action-synthesis step (spec §4.4). Delay must
// never reach here (spec §7); phase loops consume Delay themselves.
func (e *Executor) Execute(ctx context.Context, kind Kind, p Params) error {
	switch kind {
	case "Delay":
		return ErrDelayDispatched
	case "MouseMove":
		if p.X == nil || p.Y == nil {
			return fmt.Errorf("%w: MouseMove requires x and y", apperr.ErrValidation)
		}
		x, y := *p.X, *p.Y
		return e.dispatch(ctx, func(context.Context) error {
			return e.injector.MoveMouse(x, y, p.Relative)
		})
	case "MouseClick":
		if p.Button == nil {
			return fmt.Errorf("%w: MouseClick requires button", apperr.ErrValidation)
		}
		button, err := ParseButton(*p.Button)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
		}
		return e.dispatch(ctx, func(context.Context) error {
			return e.mouseClick(button, p)
		})
	case "KeyPress":
		if p.Key == nil {
			return fmt.Errorf("%w: KeyPress requires key", apperr.ErrValidation)
		}
		key, err := ParseKey(*p.Key)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
		}
		return e.dispatch(ctx, func(context.Context) error {
			return e.keyPress(key, p.Hold)
		})
	case "KeyRelease":
		if p.Key == nil {
			return fmt.Errorf("%w: KeyRelease requires key", apperr.ErrValidation)
		}
		key, err := ParseKey(*p.Key)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
		}
		return e.dispatch(ctx, func(context.Context) error {
			return e.keyRelease(key)
		})
	case "KeyCombination":
		if len(p.Keys) == 0 {
			return fmt.Errorf("%w: KeyCombination requires keys", apperr.ErrValidation)
		}
		keys := make([]Key, 0, len(p.Keys))
		for _, ks := range p.Keys {
			k, err := ParseKey(ks)
			if err != nil {
				return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
			}
			keys = append(keys, k)
		}
		return e.dispatch(ctx, func(context.Context) error {
			return e.keyCombination(keys)
		})
	case "MouseRelease":
		if p.Button == nil {
			return fmt.Errorf("%w: MouseRelease requires button", apperr.ErrValidation)
		}
		button, err := ParseButton(*p.Button)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
		}
		return e.dispatch(ctx, func(context.Context) error {
			return e.mouseRelease(button)
		})
	case "MouseDrag":
		if p.Button == nil || p.X == nil || p.Y == nil {
			return fmt.Errorf("%w: MouseDrag requires button, x and y", apperr.ErrValidation)
		}
		button, err := ParseButton(*p.Button)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
		}
		dx, dy := *p.X, *p.Y
		return e.dispatch(ctx, func(ctx context.Context) error {
			return e.mouseDrag(ctx, button, dx, dy, p.Duration)
		})
	default:
		return fmt.Errorf("%w: unknown action kind %q", apperr.ErrValidation, kind)
	}
}

func (e *Executor) mouseClick(button string, p Params) error {
	if button == "scroll-up" || button == "scroll-down" {
		amount := p.Amount
		if amount == 0 {
			amount = 3
		}
		if button == "scroll-up" {
			amount = -amount
		}
		return e.injector.ScrollMouse(amount)
	}
	if p.Hold {
		if e.state.ButtonHeld(button) {
			return nil
		}
		if err := e.injector.PressMouse(button); err != nil {
			return err
		}
		e.state.SetButtonHeld(button, true)
		return nil
	}
	if e.state.ButtonHeld(button) {
		if err := e.injector.ReleaseMouse(button); err != nil {
			return err
		}
		e.state.SetButtonHeld(button, false)
	}
	return e.injector.ClickMouse(button)
}

func (e *Executor) keyPress(key Key, hold bool) error {
	name := key.String()
	if hold {
		if e.state.KeyHeld(name) {
			return nil
		}
		if err := e.injector.PressKey(key); err != nil {
			return err
		}
		e.state.SetKeyHeld(name, true)
		return nil
	}
	if e.state.KeyHeld(name) {
		if err := e.injector.ReleaseKey(key); err != nil {
			return err
		}
		e.state.SetKeyHeld(name, false)
	}
	return e.injector.ClickKey(key)
}

func (e *Executor) keyRelease(key Key) error {
	name := key.String()
	if !e.state.KeyHeld(name) {
		return nil
	}
	if err := e.injector.ReleaseKey(key); err != nil {
		return err
	}
	e.state.SetKeyHeld(name, false)
	return nil
}

func (e *Executor) keyCombination(keys []Key) error {
	for _, k := range keys {
		if err := e.injector.PressKey(k); err != nil {
			return err
		}
	}
	for i := len(keys) - 1; i >= 0; i-- {
		if err := e.injector.ReleaseKey(keys[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) mouseRelease(button string) error {
	if !e.state.ButtonHeld(button) {
		return nil
	}
	if err := e.injector.ReleaseMouse(button); err != nil {
		return err
	}
	e.state.SetButtonHeld(button, false)
	return nil
}

func (e *Executor) mouseDrag(ctx context.Context, button string, dx, dy int32, durationMs uint32) error {
	if err := e.injector.PressMouse(button); err != nil {
		return err
	}
	e.state.SetButtonHeld(button, true)

	if durationMs > 0 {
		steps := int(durationMs / 10)
		if steps < 20 {
			steps = 20
		}
		stepDx := float64(dx) / float64(steps)
		stepDy := float64(dy) / float64(steps)
		stepSleep := time.Duration(durationMs) * time.Millisecond / time.Duration(steps)

		for i := 0; i < steps; i++ {
			if err := e.injector.MoveMouse(int32(round(stepDx)), int32(round(stepDy)), true); err != nil {
				return err
			}
			if i < steps-1 {
				select {
				case <-time.After(stepSleep):
				case <-ctx.Done():
					return fmt.Errorf("%w: %v", apperr.ErrCancelled, ctx.Err())
				}
			}
		}
	} else {
		if err := e.injector.MoveMouse(dx, dy, true); err != nil {
			return err
		}
	}

	if err := e.injector.ReleaseMouse(button); err != nil {
		return err
	}
	e.state.SetButtonHeld(button, false)
	return nil
}

func round(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

// CursorPosition reports the current OS cursor position (spec §6
// get_cursor_position), dispatched through the main-thread worker like
// every other Injector call.
func (e *Executor) CursorPosition(ctx context.Context) (x, y int32, err error) {
	err = e.dispatch(ctx, func(context.Context) error {
		var dispatchErr error
		x, y, dispatchErr = e.injector.CursorPosition()
		return dispatchErr
	})
	return x, y, err
}

// ReleaseAll bulk-releases every tracked held key and button (spec §4.5
// "bulk release"), used on macro cancellation and registry removal.
func (e *Executor) ReleaseAll(ctx context.Context) {
	for _, k := range e.state.HeldKeys() {
		key := namedOrChar(k)
		_ = e.dispatch(ctx, func(context.Context) error {
			return e.injector.ReleaseKey(key)
		})
		e.state.SetKeyHeld(k, false)
	}
	for _, b := range e.state.HeldButtons() {
		button := b
		_ = e.dispatch(ctx, func(context.Context) error {
			return e.injector.ReleaseMouse(button)
		})
		e.state.SetButtonHeld(b, false)
	}
}

// namedOrChar reconstructs a Key from its String() form for bulk release,
// where only the name survives in the held-input set (spec §3 holds a
// key→bool map, not full Key values).
func namedOrChar(name string) Key {
	if k, err := ParseKey(name); err == nil {
		return k
	}
	return namedKey(name)
}
