package pbadmin

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/testutil"
)

func putOrder(panel *testutil.Panel) {
	panel.Put(
		"orders", 3,
		testutil.Value("payed", "Payed"),
		testutil.Value("count", 2),
		testutil.Value("price", "19.5"),
		testutil.Value("discounted_price", "15"),
		testutil.Value("payments_sum", "15"),
		testutil.BelongsTo("user", 5),
		testutil.Value("created_at", "2024-02-10T08:00:00.000000Z"),
		testutil.MorphTo("Orderable", "products", 77),
		testutil.BelongsTo("coupon", 9),
		testutil.Value("extended", "Standard"),
	)
}

func TestGetOrder(t *testing.T) {
	c, panel := newTestClient(t, false)
	putOrder(panel)

	order, err := c.Orders.Get(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, order.Payed)
	require.Equal(t, 2, order.Count)
	require.Equal(t, 19.5, order.Price)
	require.Equal(t, 15.0, order.DiscountedPrice)
	require.Equal(t, intPtr(5), order.UserID)
	require.Equal(t, intPtr(77), order.ProductID)
	require.Nil(t, order.SubscriptionID)
	require.Equal(t, intPtr(9), order.CouponID)
	require.Equal(t, "coupon #9", order.Coupon)
	require.False(t, order.ExtendedLicence)
	require.Equal(t, time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC), order.CreatedAt.UTC())
}

func TestUpdateOrderTrashesClearedRelations(t *testing.T) {
	c, panel := newTestClient(t, true)
	putOrder(panel)

	ctx := context.Background()
	order, err := c.Orders.Get(ctx, 3)
	require.NoError(t, err)
	panel.ResetRequests()

	order.UserID = nil
	order.CouponID = nil
	order.Coupon = ""
	order.ProductID = nil
	order.SubscriptionID = intPtr(12)
	order.ExtendedLicence = true

	stored, err := c.Orders.Update(ctx, order, false)
	require.NoError(t, err)

	updates := panel.RequestsTo(http.MethodPost, "/nova-api/orders/3")
	require.Len(t, updates, 1)
	form := updates[0].Form
	require.Equal(t, "", form.Get("user"))
	require.Equal(t, "true", form.Get("user_trashed"))
	require.Equal(t, "", form.Get("coupon"))
	require.Equal(t, "true", form.Get("coupon_trashed"))
	require.Equal(t, "12", form.Get("Orderable"))
	require.Equal(t, "subscriptions", form.Get("Orderable_type"))
	require.Equal(t, "false", form.Get("Orderable_trashed"))
	require.Equal(t, "2024-02-10", form.Get("created_at"))
	require.Equal(t, "1", form.Get("extended"))

	require.Nil(t, stored.UserID)
	require.Nil(t, stored.CouponID)
	require.Nil(t, stored.ProductID)
	require.Equal(t, intPtr(12), stored.SubscriptionID)
	require.True(t, stored.ExtendedLicence)
	require.True(t, stored.Payed)
}

func TestUpdateOrderNeedsIdentity(t *testing.T) {
	c, panel := newTestClient(t, true)

	_, err := c.Orders.Update(context.Background(), Order{}, true)
	require.ErrorIs(t, err, nova.ErrValidation)
	require.Empty(t, panel.Requests())
}
