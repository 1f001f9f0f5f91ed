package pbadmin

import (
	"context"

	"github.com/vcslav-v/pb-admin/lib/nova"
)

type User struct {
	ID    int
	Name  string
	Email string
}

type Users struct {
	r resource
}

func newUsers(c *nova.Client) *Users {
	return &Users{r: resource{client: c, name: "users"}}
}

func decodeUser(id int, v nova.Values) User {
	return User{
		ID:    id,
		Name:  v.String("name"),
		Email: v.String("email"),
	}
}

func (u *Users) List(ctx context.Context, opts ListOptions) (nova.Listing[User], error) {
	return listResource(ctx, u.r, opts, nil, func(row nova.Row, v nova.Values) (User, error) {
		return decodeUser(int(row.ID), v), nil
	})
}

func (u *Users) Get(ctx context.Context, id int) (User, error) {
	rec, err := u.r.detail(ctx, id)
	if err != nil {
		return User{}, err
	}
	return decodeUser(rec.ID, rec.Values), nil
}
