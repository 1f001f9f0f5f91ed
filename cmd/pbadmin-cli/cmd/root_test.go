package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/vcslav-v/pb-admin/lib/testutil"
)

func TestNeedsSession(t *testing.T) {
	require.True(t, needsSession(listCmd))
	require.True(t, needsSession(syncCmd))

	completion := &cobra.Command{Use: "completion"}
	bash := &cobra.Command{Use: "bash"}
	completion.AddCommand(bash)
	require.False(t, needsSession(bash))
	require.False(t, needsSession(&cobra.Command{Use: "help"}))
}

func TestLookupResource(t *testing.T) {
	for _, name := range resourceNames() {
		r, err := lookupResource(name)
		require.NoError(t, err)
		require.NotNil(t, r.list, name)
		require.NotEmpty(t, r.header, name)
	}

	_, err := lookupResource("bundles")
	require.ErrorContains(t, err, "unknown resource")

	licences, err := lookupResource("licences")
	require.NoError(t, err)
	require.Nil(t, licences.get)
}

func TestFailedCommandReleasesSession(t *testing.T) {
	panel := testutil.NewPanel(t)
	configFile := filepath.Join(t.TempDir(), "pbadmin.json5")
	config := fmt.Sprintf(
		"{site_url: %q, login: %q, password: %q, attach_delay_ms: 0}",
		panel.URL(), panel.Login, panel.Password,
	)
	require.NoError(t, os.WriteFile(configFile, []byte(config), 0600))

	rootCmd.SetArgs([]string{"--config", configFile, "get", "licences", "1"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := run(context.Background())
	require.ErrorContains(t, err, "can only be listed")
	require.NotEmpty(t, panel.RequestsTo(http.MethodPost, "/admin/login"))
	require.Nil(t, active)
}
