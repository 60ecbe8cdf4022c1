// Package codegen generates static model implementations for contract types.
//
// It is the compile-time counterpart of pkg/model: contracts are read with
// golang.org/x/tools/go/packages, introspected on go/types with the same tag
// grammar, walk order and validation as the runtime introspector, and emitted
// as plain Go types that implement core.Model without reflection.
package codegen

import (
	"github.com/leapstack-labs/leapmodel/internal/layout"
	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// DefaultMarker is the doc comment directive that marks a contract type.
const DefaultMarker = "//modelgen:contract"

// DefaultSuffix is appended to the contract name to form the generated type name.
const DefaultSuffix = "Model"

// DefaultOutput is the base name of the generated file.
const DefaultOutput = "models_gen.go"

const corePath = "github.com/leapstack-labs/leapmodel/pkg/core"

// Package is a loaded Go package and the contracts found in it.
type Package struct {
	Path      string
	Name      string
	Dir       string
	Contracts []*Contract

	imports *importSet
}

// Contract is a contract type introspected from source.
type Contract struct {
	// Name is the contract type name.
	Name       string
	Properties []*Property
	Notify     bool
	OnChanged  bool
	Plan       layout.Plan
	// Inherited lists the embedded sub-contracts in visiting order.
	Inherited []string
}

// Property describes one contract property for generation.
type Property struct {
	Name     string
	Field    string
	TypeExpr string
	Writable bool
	Mode     core.Mode
	Ordinal  int
	Stored   bool

	// Default is a Go expression of the default value, empty when none.
	Default string

	GetterTakesCurrent bool
	Factory            string
	Construct          construct
	// Elem is the element type expression of a pointer singleton.
	Elem string

	Compare  compare
	Nillable bool
}

type construct int

const (
	constructNone construct = iota
	constructNew
	constructMap
	constructSlice
	constructChan
	constructFactory
)

type compare int

const (
	compareEqual compare = iota
	compareEqualMethod
	compareEqualMethodPtr
	compareDeep
)

// Writable returns the writable property names in ordinal order.
func (c *Contract) Writable() []string {
	out := make([]string, 0, c.Plan.Writable)
	for _, p := range c.Properties {
		if p.Ordinal >= 0 {
			out = append(out, p.Name)
		}
	}
	return out
}

// NeedsHost reports whether generated code calls methods on the contract.
func (c *Contract) NeedsHost() bool {
	if c.OnChanged {
		return true
	}
	for _, p := range c.Properties {
		if p.Mode == core.ModeExtension || p.Construct == constructFactory {
			return true
		}
	}
	return false
}

// Notifies reports whether writes raise change notification.
func (c *Contract) Notifies() bool {
	return c.Notify || c.OnChanged
}
