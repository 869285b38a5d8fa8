package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockManager_PropagatesError(t *testing.T) {
	m := &MockManager{}
	boom := errors.New("boom")

	err := m.RunInTransaction(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.Calls)
}
