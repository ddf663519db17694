package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ListingID     string `validate:"required"`
	SqftRequested int    `validate:"gt=0"`
	Size          string `validate:"omitempty,oneof=S M L"`
}

func TestValidator(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(context.Background(), sample{ListingID: "l", SqftRequested: 1}))

	err := v.Validate(context.Background(), sample{Size: "XL"})
	require.ErrorIs(t, err, ErrInvalid)
	var fe *FieldsError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, map[string]string{
		"listingID":     "is required",
		"sqftRequested": "must be greater than 0",
		"size":          "must be one of S M L",
	}, fe.Fields)
	assert.Contains(t, err.Error(), "listingID: is required")
}

func TestValidator_IgnoresNonStructs(t *testing.T) {
	assert.NoError(t, New().Validate(context.Background(), "text"))
	assert.NoError(t, New().Validate(context.Background(), nil))
}
