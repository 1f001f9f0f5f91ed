package pbadmin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	devenv "github.com/vcslav-v/pb-admin/dev/env"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/telemetry"
)

func TestLivePanel(t *testing.T) {
	config, err := devenv.LoadPanelConfig()
	require.NoError(t, err)
	if !config.Ready() {
		t.Skip("this test requires a panel account in <dev_state>/panel_config.json5")
	}

	cleanup := telemetry.SetupForTesting(t, "test:pbadmin")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := New(ctx, Config{
		SiteURL:  config.SiteURL,
		Login:    config.Login,
		Password: config.Password,
		BasicAuth: BasicAuth{
			User:     config.BasicAuthUser,
			Password: config.BasicAuthPassword,
		},
	})
	require.NoError(t, err)
	defer c.Close()

	tags, err := c.Tags.List(ctx, ListOptions{Limit: 10, Policy: nova.SkipAndRecord})
	require.NoError(t, err)
	t.Logf("listed %d tags, skipped %d", len(tags.Items), len(tags.Skipped))

	if config.ProductID > 0 {
		product, err := c.Products.Get(ctx, config.ProductID)
		require.NoError(t, err)
		require.Equal(t, config.ProductID, product.ID)
		require.NotEmpty(t, product.Title)
	}

	// edit mode is off, writes never reach the panel
	_, err = c.Tags.Update(ctx, Tag{ID: 1, Name: "x"}, true)
	require.ErrorIs(t, err, nova.ErrPermission)
}
