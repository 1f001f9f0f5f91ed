package pbadmin

import (
	"context"
	"time"

	"github.com/vcslav-v/pb-admin/lib/nova"
)

type Payment struct {
	ID      int
	OrderID *int
	// PriceCents is nil when the panel reports no price.
	PriceCents *int
	Status     PaymentStatus
	CreatedAt  *time.Time
}

type Payments struct {
	r resource
}

func newPayments(c *nova.Client) *Payments {
	return &Payments{r: resource{client: c, name: "payments"}}
}

func (p *Payments) decode(id int, v nova.Values) (Payment, error) {
	createdAt, err := timeValue(v, p.r.name, "created_at")
	if err != nil {
		return Payment{}, err
	}
	return Payment{
		ID:         id,
		OrderID:    v.IntPtr("order"),
		PriceCents: cents(v, "price"),
		Status:     PaymentStatus(v.Select("status")),
		CreatedAt:  createdAt,
	}, nil
}

func (p *Payments) List(ctx context.Context, opts ListOptions) (nova.Listing[Payment], error) {
	return listResource(ctx, p.r, opts, nil, func(row nova.Row, v nova.Values) (Payment, error) {
		return p.decode(int(row.ID), v)
	})
}

func (p *Payments) Get(ctx context.Context, id int) (Payment, error) {
	rec, err := p.r.detail(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	return p.decode(rec.ID, rec.Values)
}

type Subscription struct {
	ID             int
	SubscriptionID string
	Status         string
	Period         string
	BillingPlan    string
	Resubscribe    bool
	UserID         *int
	StartDate      *time.Time
	EndDate        *time.Time
	UpdatedAt      *time.Time
}

type Subscriptions struct {
	r resource
}

func newSubscriptions(c *nova.Client) *Subscriptions {
	return &Subscriptions{r: resource{
		client: c,
		name:   "subscriptions",
		kinds:  nova.Kinds{"user": nova.BelongsTo},
	}}
}

// decode rejects malformed dates, a listing with ListOptions.Policy set to
// nova.SkipAndRecord reports those rows instead of failing.
func (s *Subscriptions) decode(id int, v nova.Values) (Subscription, error) {
	sub := Subscription{
		ID:             id,
		SubscriptionID: v.String("subscription_id"),
		Status:         v.Select("status"),
		Period:         v.Select("period"),
		BillingPlan:    v.String("billingPlan"),
		Resubscribe:    v.Bool("resubscribe"),
		UserID:         v.IntPtr("user"),
	}
	var err error
	sub.StartDate, err = timeValue(v, s.r.name, "start_date")
	if err != nil {
		return Subscription{}, err
	}
	sub.EndDate, err = timeValue(v, s.r.name, "end_date")
	if err != nil {
		return Subscription{}, err
	}
	sub.UpdatedAt, err = timeValue(v, s.r.name, "updated_at")
	if err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (s *Subscriptions) List(ctx context.Context, opts ListOptions) (nova.Listing[Subscription], error) {
	return listResource(ctx, s.r, opts, nil, func(row nova.Row, v nova.Values) (Subscription, error) {
		return s.decode(int(row.ID), v)
	})
}

func (s *Subscriptions) Get(ctx context.Context, id int) (Subscription, error) {
	rec, err := s.r.detail(ctx, id)
	if err != nil {
		return Subscription{}, err
	}
	return s.decode(rec.ID, rec.Values)
}
