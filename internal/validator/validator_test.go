package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,is-user-role"`
}

type rating struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"trimmed-len=10-500"`
}

type review struct {
	Status string `json:"status" validate:"required,is-review-status"`
	Name   string `form:"name" validate:"notblank"`
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(&signup{Email: "nope", Role: "admin"})
	require.Error(t, err)

	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Errors, "email")
	assert.Equal(t, "Must be one of: client, designer", vErr.Errors["role"])
	assert.NoError(t, v.Validate(&signup{Email: "a@b.co", Role: "designer"}))
}

func TestValidate_TrimmedLength(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&rating{Rating: 5, Comment: "Great work overall"}))
	assert.Error(t, v.Validate(&rating{Rating: 5, Comment: "   short    "}))
	assert.Error(t, v.Validate(&rating{Rating: 5, Comment: strings.Repeat("x", 501)}))
	assert.NoError(t, v.Validate(&rating{Rating: 1, Comment: strings.Repeat("x", 500)}))
	assert.Error(t, v.Validate(&rating{Rating: 6, Comment: "Great work overall"}))
	assert.Error(t, v.Validate(&rating{Rating: 0, Comment: "Great work overall"}))
}

func TestValidate_ReviewStatusAndFormNames(t *testing.T) {
	v := New()

	err := v.Validate(&review{Status: "approved", Name: "  "})
	require.Error(t, err)
	vErr := err.(*ValidationError)
	assert.Contains(t, vErr.Errors, "status", "lowercase status is rejected")
	assert.Contains(t, vErr.Errors, "name")

	assert.NoError(t, v.Validate(&review{Status: "REJECTED", Name: "ok"}))
}
