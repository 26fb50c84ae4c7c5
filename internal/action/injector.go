package action

// Injector is the platform input-injection driver (spec §1: explicitly
// out of scope, "treated as an external collaborator"). The executor
// dispatches every synthesized step through this interface; a real
// platform driver is expected to satisfy it, but this module ships only
// the collaborator contract plus the two reference implementations used
// for testing and for the demo console. A real implementation should
// wrap synthesis failures (permission denied, device gone, init
// failure) with apperr.ErrPlatform so callers can errors.Is against the
// spec §7 error taxonomy.
type Injector interface {
	MoveMouse(x, y int32, relative bool) error
	ClickMouse(button string) error
	PressMouse(button string) error
	ReleaseMouse(button string) error
	ScrollMouse(amount int32) error
	PressKey(key Key) error
	ReleaseKey(key Key) error
	ClickKey(key Key) error
	CursorPosition() (x, y int32, err error)
}

// NoopInjector performs no real input synthesis; every call succeeds
// immediately. Used by tests that exercise the orchestrator's state
// machine without touching a real OS input surface.
type NoopInjector struct{}

func (NoopInjector) MoveMouse(x, y int32, relative bool) error { return nil }
func (NoopInjector) ClickMouse(button string) error            { return nil }
func (NoopInjector) PressMouse(button string) error            { return nil }
func (NoopInjector) ReleaseMouse(button string) error          { return nil }
func (NoopInjector) ScrollMouse(amount int32) error            { return nil }
func (NoopInjector) PressKey(key Key) error                    { return nil }
func (NoopInjector) ReleaseKey(key Key) error                  { return nil }
func (NoopInjector) ClickKey(key Key) error                    { return nil }
func (NoopInjector) CursorPosition() (int32, int32, error)     { return 0, 0, nil }

// RecordingInjector is a NoopInjector that additionally appends every
// call to a log, in order, for assertions in tests.
type RecordingInjector struct {
	NoopInjector
	Calls []string
}

func NewRecordingInjector() *RecordingInjector { return &RecordingInjector{} }

func (r *RecordingInjector) PressKey(key Key) error {
	r.Calls = append(r.Calls, "press:"+key.String())
	return nil
}

func (r *RecordingInjector) ReleaseKey(key Key) error {
	r.Calls = append(r.Calls, "release:"+key.String())
	return nil
}

func (r *RecordingInjector) ClickKey(key Key) error {
	r.Calls = append(r.Calls, "click:"+key.String())
	return nil
}

func (r *RecordingInjector) PressMouse(button string) error {
	r.Calls = append(r.Calls, "mousedown:"+button)
	return nil
}

func (r *RecordingInjector) ReleaseMouse(button string) error {
	r.Calls = append(r.Calls, "mouseup:"+button)
	return nil
}

func (r *RecordingInjector) ClickMouse(button string) error {
	r.Calls = append(r.Calls, "click:"+button)
	return nil
}

func (r *RecordingInjector) ScrollMouse(amount int32) error {
	r.Calls = append(r.Calls, "scroll")
	return nil
}

func (r *RecordingInjector) MoveMouse(x, y int32, relative bool) error {
	r.Calls = append(r.Calls, "move")
	return nil
}
