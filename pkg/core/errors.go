package core

import (
	"errors"
	"fmt"
)

// Contract error kinds. Match with errors.Is.
var (
	// ErrInvalidContract reports a contract type that cannot be compiled at all.
	ErrInvalidContract = errors.New("invalid contract")
	// ErrExtensionNotFound reports a missing or mis-typed extension accessor.
	ErrExtensionNotFound = errors.New("extension accessor not found")
	// ErrSingletonNotReference reports a singleton that cannot be constructed.
	ErrSingletonNotReference = errors.New("singleton type is not constructible")
	// ErrDefaultConversion reports a default value that does not convert to the property type.
	ErrDefaultConversion = errors.New("default value not convertible")
)

// ContractError describes why a contract failed to compile.
type ContractError struct {
	Contract string // contract type name
	Property string // property name, empty for contract-level errors
	Kind     error  // one of the Err* sentinels
	Msg      string
	Cause    error // underlying error, if any
}

// NewContractError creates a contract error of the given kind.
func NewContractError(contract, property string, kind error, format string, args ...any) *ContractError {
	return &ContractError{
		Contract: contract,
		Property: property,
		Kind:     kind,
		Msg:      fmt.Sprintf(format, args...),
	}
}

// WrapContractError creates a contract error carrying an underlying cause.
func WrapContractError(contract, property string, kind error, msg string, cause error) *ContractError {
	return &ContractError{
		Contract: contract,
		Property: property,
		Kind:     kind,
		Msg:      msg,
		Cause:    cause,
	}
}

func (e *ContractError) Error() string {
	where := e.Contract
	if e.Property != "" {
		where = e.Contract + "." + e.Property
	}
	base := fmt.Sprintf("%s: %v: %s", where, e.Kind, e.Msg)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

// Is matches the error kind so callers can use errors.Is(err, core.ErrDefaultConversion).
func (e *ContractError) Is(target error) bool {
	return target == e.Kind
}

func (e *ContractError) Unwrap() error {
	return e.Cause
}
