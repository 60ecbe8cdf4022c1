package core

import "fmt"

// =============================================================================
// Mode
// =============================================================================

// Mode selects how a contract property is implemented.
type Mode int

// Property implementation modes.
const (
	// ModeDefault stores the value in a plain field.
	ModeDefault Mode = iota
	// ModeExtension delegates get/set to functions resolved on the extension host.
	ModeExtension
	// ModeSingleton lazily constructs the value once per instance. Never settable.
	ModeSingleton
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeExtension:
		return "extension"
	case ModeSingleton:
		return "singleton"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a string to a Mode value.
// Returns false for unknown names.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "default":
		return ModeDefault, true
	case "extension":
		return ModeExtension, true
	case "singleton":
		return ModeSingleton, true
	default:
		return ModeDefault, false
	}
}
