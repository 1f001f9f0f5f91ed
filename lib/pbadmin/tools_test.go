package pbadmin

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcslav-v/pb-admin/lib/nova"
)

func TestMakePush(t *testing.T) {
	cases := []struct {
		productType ProductType
		path        string
	}{
		{ProductFreebie, "/nova-api/freebies/action"},
		{ProductPremium, "/nova-api/premia/action"},
		{ProductPlus, "/nova-api/pluses/action"},
	}
	for _, tc := range cases {
		t.Run(string(tc.productType), func(t *testing.T) {
			c, panel := newTestClient(t, true)

			err := c.Tools.MakePush(context.Background(), []int{3, 14}, tc.productType)
			require.NoError(t, err)

			reqs := panel.RequestsTo(http.MethodPost, tc.path)
			require.Len(t, reqs, 1)
			require.Equal(t, "send-push", reqs[0].Query.Get("action"))
			require.Equal(t, "false", reqs[0].Query.Get("pivotAction"))
			require.Equal(t, "W10=", reqs[0].Query.Get("filters"))
			require.Equal(t, "3,14", reqs[0].Form.Get("resources"))
		})
	}
}

func TestMakePushUnknownType(t *testing.T) {
	c, panel := newTestClient(t, true)

	err := c.Tools.MakePush(context.Background(), []int{1}, "bundle")
	require.ErrorIs(t, err, nova.ErrValidation)
	require.Empty(t, panel.Requests())
}
