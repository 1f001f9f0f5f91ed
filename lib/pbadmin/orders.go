package pbadmin

import (
	"context"
	"strconv"
	"time"

	"github.com/vcslav-v/pb-admin/lib/nova"
)

const orderableField = "Orderable"

// Order is a purchase. It targets either a product or a subscription
// through the polymorphic Orderable relation.
type Order struct {
	ID              int
	Payed           bool
	Count           int
	Price           float64
	DiscountedPrice float64
	PaymentsSum     float64
	UserID          *int
	CreatedAt       *time.Time
	ProductID       *int
	SubscriptionID  *int
	Coupon          string
	CouponID        *int
	ExtendedLicence bool
}

type Orders struct {
	r resource
}

func newOrders(c *nova.Client) *Orders {
	return &Orders{r: resource{
		client: c,
		name:   "orders",
		kinds: nova.Kinds{
			"user":         nova.BelongsTo,
			"coupon":       nova.BelongsTo,
			orderableField: nova.MorphTo,
		},
	}}
}

func extendedLicence(s string) bool {
	switch s {
	case "", "0", "false", "Standard":
		return false
	}
	return true
}

func (o *Orders) decode(id int, fields []nova.Field, v nova.Values) (Order, error) {
	createdAt, err := timeValue(v, o.r.name, "created_at")
	if err != nil {
		return Order{}, err
	}
	return Order{
		ID:              id,
		Payed:           v.String("payed") == "Payed" || v.Bool("payed"),
		Count:           v.Int("count"),
		Price:           v.Float("price"),
		DiscountedPrice: v.Float("discounted_price"),
		PaymentsSum:     v.Float("payments_sum"),
		UserID:          v.IntPtr("user"),
		CreatedAt:       createdAt,
		ProductID:       v.IntPtr(nova.MorphKey(orderableField, "products")),
		SubscriptionID:  v.IntPtr(nova.MorphKey(orderableField, "subscriptions")),
		Coupon:          fieldLabel(fields, "coupon"),
		CouponID:        v.IntPtr("coupon"),
		ExtendedLicence: extendedLicence(v.String("extended")),
	}, nil
}

func (o *Orders) List(ctx context.Context, opts ListOptions) (nova.Listing[Order], error) {
	return listResource(ctx, o.r, opts, nil, func(row nova.Row, v nova.Values) (Order, error) {
		return o.decode(int(row.ID), row.Fields, v)
	})
}

func (o *Orders) Get(ctx context.Context, id int) (Order, error) {
	rec, err := o.r.detail(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return o.decode(rec.ID, rec.Fields, rec.Values)
}

// orderForm encodes order. Relations that were set on previous and are
// cleared on order are submitted as trashed.
func orderForm(order, previous Order) *nova.Form {
	form := nova.NewForm().
		SetBool("payed", order.Payed).
		SetInt("count", order.Count).
		Set("price", formatFloat(order.Price)).
		Set("discounted_price", formatFloat(order.DiscountedPrice)).
		Set("payments_sum", formatFloat(order.PaymentsSum))

	user := 0
	if order.UserID != nil {
		user = *order.UserID
	}
	form.SetBelongsTo("user", user, previous.UserID != nil && order.UserID == nil)

	createdAt := ""
	if order.CreatedAt != nil {
		createdAt = order.CreatedAt.Format(time.DateOnly)
	}
	form.Set("created_at", createdAt)

	target, targetType := "", ""
	switch {
	case order.ProductID != nil:
		target, targetType = strconv.Itoa(*order.ProductID), "products"
	case order.SubscriptionID != nil:
		target, targetType = strconv.Itoa(*order.SubscriptionID), "subscriptions"
	}
	hadTarget := previous.ProductID != nil || previous.SubscriptionID != nil
	form.Set(orderableField, target).
		Set(orderableField+"_type", targetType).
		Set(orderableField+"_trashed", strconv.FormatBool(hadTarget && target == ""))

	coupon := 0
	if order.CouponID != nil {
		coupon = *order.CouponID
	}
	hadCoupon := previous.Coupon != "" || previous.CouponID != nil
	form.SetBelongsTo("coupon", coupon, hadCoupon && order.CouponID == nil)

	form.SetBool("extended", order.ExtendedLicence)
	return form
}

// Update stores order. The stored order is read first to tell which
// relations are being cleared. Unless lite is set the stored order is
// returned.
func (o *Orders) Update(ctx context.Context, order Order, lite bool) (*Order, error) {
	if err := o.r.client.RequireWrite("update orders"); err != nil {
		return nil, err
	}
	if err := requireID(o.r.name, order.ID); err != nil {
		return nil, err
	}

	previous, err := o.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	err = o.r.update(ctx, order.ID, orderForm(order, previous))
	if err != nil {
		return nil, err
	}
	if lite {
		return nil, nil
	}
	stored, err := o.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
