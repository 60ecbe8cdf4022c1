package core

// Model is the capability surface of a compiled model instance.
//
// It is the only contract between compiled models and the data-access layer
// that builds partial-update statements from them. Operations that are
// structurally impossible (writing a read-only property, asking about an
// unknown name) fail soft and never panic.
type Model interface {
	// GetCount returns the number of properties changed since creation or the last reset.
	GetCount() int

	// HasChanges reports whether any of the named properties changed.
	// With no names it reports whether anything changed at all.
	HasChanges(names ...string) bool

	// GetChanges returns the changed properties and their current values.
	// Returns nil, not an empty map, when nothing changed.
	GetChanges() map[string]any

	// Reset clears the changed flag of one property and returns its current value.
	// ok is false when the name is unknown or the property is not changed.
	Reset(name string) (old any, ok bool)

	// ResetMany clears the changed flag of every named property. Unknown or
	// unchanged names are skipped.
	ResetMany(names ...string)

	// TryGetValue reads a property by name. Works for read-only properties too.
	TryGetValue(name string) (any, bool)

	// TrySetValue writes a property by name through the same path as a direct
	// write. Returns false for unknown, read-only and singleton properties and
	// for values not assignable to the property type.
	TrySetValue(name string, value any) bool
}

// PropertyChangedFunc observes property changes on a model instance.
type PropertyChangedFunc func(sender Model, property string)

// Subscription identifies one registered PropertyChangedFunc.
// The zero value never matches a registration.
type Subscription uint64

// Notifier is implemented by models whose contract opted into change notification.
type Notifier interface {
	AddPropertyChanged(fn PropertyChangedFunc) Subscription
	RemovePropertyChanged(sub Subscription) bool
}

// NotifyPropertyChanged is embedded in a contract to request a change-notification
// slot on compiled instances. It carries no data.
type NotifyPropertyChanged struct{}

// OnPropertyChangedMethod is the name of the optional host method
// func(m Model, property string) invoked after every notified change.
const OnPropertyChangedMethod = "OnPropertyChanged"
