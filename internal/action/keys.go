package action

import (
	"fmt"
	"strings"
)

// Key is the platform-independent key enum the Injector understands.
// Concrete platform drivers (out of scope per spec §1) map these onto
// their own key codes.
type Key struct {
	name string
	r    rune // set when this key is a single printable character
}

func namedKey(name string) Key { return Key{name: name} }

func charKey(r rune) Key { return Key{name: "char", r: r} }

// String returns a human-readable label, useful for logging.
func (k Key) String() string {
	if k.name == "char" {
		return string(k.r)
	}
	return k.name
}

// Rune returns the character this key represents and whether it is a
// single-character key.
func (k Key) Rune() (rune, bool) {
	if k.name == "char" {
		return k.r, true
	}
	return 0, false
}

var namedKeys = map[string]string{
	"backspace": "Backspace",
	"tab":       "Tab",
	"enter":     "Return",
	"return":    "Return",
	"escape":    "Escape",
	"esc":       "Escape",
	"space":     "Space",
	"capslock":  "CapsLock",
	"shift":     "Shift",
	"ctrl":      "Control",
	"control":   "Control",
	"alt":       "Alt",
	"meta":      "Meta",
	"command":   "Meta",
	"super":     "Meta",
	"windows":   "Meta",
	"delete":    "Delete",
	"del":       "Delete",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pagedown":  "PageDown",

	"leftarrow":  "ArrowLeft",
	"rightarrow": "ArrowRight",
	"uparrow":    "ArrowUp",
	"downarrow":  "ArrowDown",
	"arrowleft":  "ArrowLeft",
	"arrowright": "ArrowRight",
	"arrowup":    "ArrowUp",
	"arrowdown":  "ArrowDown",
	"←":          "ArrowLeft",
	"→":          "ArrowRight",
	"↑":          "ArrowUp",
	"↓":          "ArrowDown",

	"f1": "F1", "f2": "F2", "f3": "F3", "f4": "F4", "f5": "F5",
	"f6": "F6", "f7": "F7", "f8": "F8", "f9": "F9", "f10": "F10",
	"f11": "F11", "f12": "F12", "f13": "F13", "f14": "F14", "f15": "F15",
	"f16": "F16", "f17": "F17", "f18": "F18", "f19": "F19", "f20": "F20",
}

// ParseKey maps a key-name string (case-insensitive) to a Key, per the
// closed vocabulary in spec §4.4. A single ASCII character is accepted
// literally. Unknown names fail with a descriptive error (spec §7,
// validation kind).
func ParseKey(s string) (Key, error) {
	lower := strings.ToLower(s)
	if named, ok := namedKeys[lower]; ok {
		return namedKey(named), nil
	}
	runes := []rune(s)
	if len(runes) == 1 && runes[0] <= 0x7F {
		return charKey(runes[0]), nil
	}
	return Key{}, fmt.Errorf("unknown key name: %q", s)
}

// ParseButton maps a button-name string to a canonical button identifier.
func ParseButton(s string) (string, error) {
	switch strings.ToLower(s) {
	case "left", "right", "middle", "scroll-up", "scroll-down":
		return strings.ToLower(s), nil
	default:
		return "", fmt.Errorf("unknown mouse button: %q", s)
	}
}
