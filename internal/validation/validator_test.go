package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/audioshelf/internal/domainerr"
)

type signupInput struct {
	Username string `json:"username" validate:"required,min=3,max=150,username"`
	Password string `json:"password" validate:"required,min=8"`
}

type chapterInput struct {
	Title    string `json:"title" validate:"required,max=150"`
	Position *int   `json:"position,omitempty" validate:"omitempty,gte=0"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	err := v.Validate(signupInput{Username: "reader_01", Password: "long-enough"})

	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(signupInput{Username: "", Password: "short"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrInvalidInput))

	var domainErr *domainerr.Error
	require.True(t, errors.As(err, &domainErr))
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["username"])
	assert.Equal(t, "must be at least 8 characters", details["password"])
}

func TestValidate_UsernameTag(t *testing.T) {
	v := New()

	err := v.Validate(signupInput{Username: "bad name!", Password: "long-enough"})

	var domainErr *domainerr.Error
	require.True(t, errors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details["username"], "letters, digits")
}

func TestValidate_OptionalPointer(t *testing.T) {
	v := New()
	neg := -1
	zero := 0

	assert.NoError(t, v.Validate(chapterInput{Title: "One"}))
	assert.NoError(t, v.Validate(chapterInput{Title: "One", Position: &zero}))
	assert.Error(t, v.Validate(chapterInput{Title: "One", Position: &neg}))
}
