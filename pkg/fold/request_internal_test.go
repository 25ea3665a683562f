package fold

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestValidator_RegistersMethodTag(t *testing.T) {
	t.Parallel()

	var v *validator.Validate

	require.NotPanics(t, func() { v = newRequestValidator() })

	assert.NoError(t, v.Var("entropy-tanh", "fold_method"))
	assert.Error(t, v.Var("cosine", "fold_method"))
}
