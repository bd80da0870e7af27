package schedulers

import (
	"context"
	"testing"
	"time"

	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsInvalidSpec(t *testing.T) {
	s := New(logger.NewNop())
	err := s.Register("broken", "not a cron", time.Second, func(context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestJobRuns(t *testing.T) {
	s := New(logger.NewNop())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Register("tick", "@every 1s", time.Second, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}))
	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
