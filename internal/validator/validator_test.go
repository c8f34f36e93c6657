package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Strategy string `json:"strategy" validate:"required,oneof=ROUND_ROBIN LOAD_BASED"`
}

func TestValidate(t *testing.T) {
	err := Validate(sampleRequest{Email: "ops@example.com", Strategy: "ROUND_ROBIN"})
	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(sampleRequest{Email: "not-an-email", Strategy: "WEIGHTED"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'email' failed on 'email'")
	assert.Contains(t, err.Error(), "field 'strategy' failed on 'oneof'")
}
