package core

import (
	"fmt"
	"strings"
)

// Struct tag keys read from contract fields.
const (
	// TagKey holds the comma separated property options.
	TagKey = "model"
	// DefaultTagKey holds the textual default value of a property.
	DefaultTagKey = "default"
)

// Tag is the parsed form of a `model:"..."` struct tag.
//
// Grammar (comma separated, order free):
//
//	-              skip the field
//	readonly       no setter, never tracked
//	extension      ModeExtension
//	singleton      ModeSingleton (implies readonly)
//	name=<alias>   exposed property name
//	factory=<fn>   singleton factory method on the extension host
type Tag struct {
	Skip     bool
	ReadOnly bool
	Mode     Mode
	Name     string
	Factory  string
}

// ParseTag parses the value of a `model` struct tag.
func ParseTag(raw string) (Tag, error) {
	var tag Tag
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tag, nil
	}
	if raw == "-" {
		tag.Skip = true
		return tag, nil
	}

	modeSet := false
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		key, value, hasValue := strings.Cut(item, "=")
		switch key {
		case "readonly":
			tag.ReadOnly = true
		case "extension", "singleton", "default":
			mode, _ := ParseMode(key)
			if modeSet && tag.Mode != mode {
				return Tag{}, fmt.Errorf("conflicting modes %q and %q", tag.Mode, mode)
			}
			tag.Mode = mode
			modeSet = true
		case "name":
			if !hasValue || value == "" {
				return Tag{}, fmt.Errorf("option %q requires a value", key)
			}
			tag.Name = value
		case "factory":
			if !hasValue || value == "" {
				return Tag{}, fmt.Errorf("option %q requires a value", key)
			}
			tag.Factory = value
		default:
			return Tag{}, fmt.Errorf("unknown option %q", item)
		}
	}

	if tag.Mode == ModeSingleton {
		tag.ReadOnly = true
	}
	if tag.Factory != "" && tag.Mode != ModeSingleton {
		return Tag{}, fmt.Errorf("factory=%s is only valid for singleton properties", tag.Factory)
	}
	return tag, nil
}
