package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructReportsJSONField(t *testing.T) {
	err := validateStruct(&RegisterRequest{Username: "ok_name", Email: "a@b.co", Password: ""})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
	assert.Equal(t, "is required", verr.Message)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestUsernameRule(t *testing.T) {
	for _, name := range []string{"abc", "Scent_Lover_99", "___"} {
		assert.NoError(t, validateStruct(&RegisterRequest{Username: name, Email: "a@b.co", Password: "password1"}), name)
	}
	for _, name := range []string{"ab", "has space", "dash-ed", "émile"} {
		assert.Error(t, validateStruct(&RegisterRequest{Username: name, Email: "a@b.co", Password: "password1"}), name)
	}
}

func TestNestedFieldPath(t *testing.T) {
	err := validateStruct(&FragranceDraft{Name: "A", Brand: "B", Tags: make([]string, 21)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tags", verr.Field)
	assert.Equal(t, "must have at most 20 items", verr.Message)
}
