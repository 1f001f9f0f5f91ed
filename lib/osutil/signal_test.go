package osutil

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	second := WaitSignals(cancel)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	select {
	case <-ctx.Done():
	case <-time.After(time.Second * 2):
		t.Fatal("context was not cancelled by the first signal")
	}

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))
	select {
	case sig := <-second:
		require.Equal(t, syscall.SIGTERM, sig)
	case <-time.After(time.Second * 2):
		t.Fatal("second signal was not forwarded")
	}
}
