package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPurger struct {
	calls int
	n     int
	err   error
}

func (s *stubPurger) PurgeInvisible(ctx context.Context) (int, error) {
	s.calls++
	return s.n, s.err
}

func TestVisibilitySweeperRun(t *testing.T) {
	p := &stubPurger{n: 3}
	require.NoError(t, NewVisibilitySweeper(p).Run(context.Background()))
	assert.Equal(t, 1, p.calls)
}

func TestVisibilitySweeperWrapsError(t *testing.T) {
	boom := errors.New("boom")
	err := NewVisibilitySweeper(&stubPurger{err: boom}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
