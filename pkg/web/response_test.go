package web

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestBindingError(t *testing.T) {
	type request struct {
		OwnerID int64 `validate:"required"`
		ID      int64 `validate:"min=1"`
	}

	v := validator.New()

	err := v.Struct(request{ID: 1})
	require.Equal(t, "OwnerID field is required", BindingError(err).Error)

	err = v.Struct(request{OwnerID: 1})
	require.Equal(t, "ID must be at least 1", BindingError(err).Error)

	require.Equal(t, "unexpected EOF", BindingError(errors.New("unexpected EOF")).Error)
}
