package pbadmin

import (
	"context"
	"fmt"

	"github.com/vcslav-v/pb-admin/lib/nova"
)

// Tools runs panel actions that are not tied to one resource module.
type Tools struct {
	client *nova.Client
}

func newTools(c *nova.Client) *Tools {
	return &Tools{client: c}
}

// MakePush sends a push notification for products of the given type.
func (t *Tools) MakePush(ctx context.Context, productIDs []int, productType ProductType) error {
	if err := t.client.RequireWrite("send push"); err != nil {
		return err
	}
	name, ok := productType.actionResource()
	if !ok {
		return &nova.ValidationError{
			Resource: "push",
			Reason:   fmt.Sprintf("unknown product type %q", productType),
		}
	}
	if len(productIDs) == 0 {
		return &nova.ValidationError{Resource: "push", Reason: "no products given"}
	}
	r := resource{client: t.client, name: name}
	return r.action(ctx, "send-push", productIDs)
}
