package core

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContractError(t *testing.T) {
	err := NewContractError("shop.Customer", "Age", ErrDefaultConversion, "cannot use %q", "old")

	assert.True(t, errors.Is(err, ErrDefaultConversion))
	assert.False(t, errors.Is(err, ErrExtensionNotFound))
	assert.Equal(t, `shop.Customer.Age: default value not convertible: cannot use "old"`, err.Error())

	var ce *ContractError
	assert.True(t, errors.As(error(err), &ce))
	assert.Equal(t, "Age", ce.Property)
}

func TestContractError_Wrap(t *testing.T) {
	_, cause := strconv.Atoi("x")
	err := WrapContractError("shop.Customer", "", ErrInvalidContract, "bad", cause)

	assert.True(t, errors.Is(err, ErrInvalidContract))
	assert.True(t, errors.Is(err, strconv.ErrSyntax))
	assert.Contains(t, err.Error(), "shop.Customer: invalid contract: bad")
}
