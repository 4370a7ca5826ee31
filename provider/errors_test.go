package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name          string
		err           error
		wantPermanent bool
		wantTransient bool
	}{
		{name: "nil", err: nil},
		{name: "permanent", err: NewPermanent("amadeus", base), wantPermanent: true},
		{name: "transient", err: NewTransient("rail", base), wantTransient: true},
		{name: "plain error counts as transient", err: base, wantTransient: true},
		{name: "wrapped permanent", err: fmt.Errorf("fetch: %w", NewPermanent("sql", base)), wantPermanent: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantPermanent, IsPermanent(tc.err))
			assert.Equal(t, tc.wantTransient, IsTransient(tc.err))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	base := errors.New("401 unauthorized")
	err := NewPermanent("amadeus", base)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "amadeus")
	assert.Contains(t, err.Error(), "permanent")
}
