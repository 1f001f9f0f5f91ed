package globals

import (
	"context"

	"github.com/vcslav-v/pb-admin/lib/pbadmin"
)

type key struct{}

type Value struct {
	Client *pbadmin.Client
	Config pbadmin.Config
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}

func Lookup(ctx context.Context) (*Value, bool) {
	value, ok := ctx.Value(key{}).(*Value)
	return value, ok
}
