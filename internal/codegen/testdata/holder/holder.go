package holder

import "github.com/leapstack-labs/leapmodel/pkg/core"

// Box wraps a value of any type.
type Box struct {
	V any
}

// Holder keeps values whose equality depends on their dynamic type.
//
//modelgen:contract
type Holder struct {
	Payload Box
	Any     any
	Pair    [2]any
	core.NotifyPropertyChanged
}
