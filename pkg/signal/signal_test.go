package signal

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithShutdownCancelsOnSIGTERM(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, stop := WithShutdown(context.Background(), zap.New(core))
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("received shutdown signal").Len() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWithShutdownFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := WithShutdown(parent, zap.NewNop())
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with parent")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	ctx, stop := WithShutdown(context.Background(), zap.NewNop())
	stop()
	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
