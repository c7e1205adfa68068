package accounts

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/starkcustody/starkcustody/io/prompt"
	"github.com/starkcustody/starkcustody/network"
	"github.com/stretchr/testify/require"
)

func TestRegistry_WatchKeyfileChanges(t *testing.T) {
	prev := debounceFileChangesInterval
	debounceFileChangesInterval = 20 * time.Millisecond
	defer func() { debounceFileChangesInterval = prev }()

	r, err := NewRegistry(&Config{
		DataDir:  t.TempDir(),
		Network:  network.NewStatic("testnet"),
		Prompter: &prompt.Static{Passphrase: "passw0rd$X", Confirmed: true},
		LightKDF: true,
	})
	require.NoError(t, err)
	require.NoError(t, r.ImportAccount("bob", "testnet", "0xAB", big.NewInt(0x1), "passw0rd$X"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.WatchKeyfileChanges(ctx) }()

	// Give the watcher a moment to register before touching the file.
	time.Sleep(50 * time.Millisecond)

	data, err := os.ReadFile(r.keyfilePath("bob"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(r.keyfilePath("bob"), data, 0600))

	require.Eventually(t, func() bool {
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.cached["bob"]
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "cache entry was not invalidated")

	cancel()
	require.NoError(t, <-done)
}
