package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/utils"
	"github.com/vcslav-v/pb-admin/lib/exportstore"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/pbadmin"
)

// listed is one fetched listing, rendered for the terminal or written to
// an export store.
type listed struct {
	rows    []table.Row
	skipped []*nova.RowError
	export  func(ctx context.Context, store exportstore.Store, startedAt time.Time) (exportstore.Run, error)
}

type resourceCommands struct {
	header table.Row
	list   func(ctx context.Context, c *pbadmin.Client, opts pbadmin.ListOptions) (listed, error)
	get    func(ctx context.Context, c *pbadmin.Client, id int) (any, error)
}

func listOf[T any](
	name string,
	list func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[T], error),
	describe func(T) (int, string),
	row func(T) table.Row,
) func(context.Context, *pbadmin.Client, pbadmin.ListOptions) (listed, error) {
	return func(ctx context.Context, c *pbadmin.Client, opts pbadmin.ListOptions) (listed, error) {
		listing, err := list(c)(ctx, opts)
		if err != nil {
			return listed{}, err
		}
		rows := make([]table.Row, len(listing.Items))
		for i, item := range listing.Items {
			rows[i] = row(item)
		}
		return listed{
			rows:    rows,
			skipped: listing.Skipped,
			export: func(ctx context.Context, store exportstore.Store, startedAt time.Time) (exportstore.Run, error) {
				return exportstore.Export(ctx, store, name, startedAt, listing, describe)
			},
		}, nil
	}
}

func getOf[T any](get func(c *pbadmin.Client) func(context.Context, int) (T, error)) func(context.Context, *pbadmin.Client, int) (any, error) {
	return func(ctx context.Context, c *pbadmin.Client, id int) (any, error) {
		return get(c)(ctx, id)
	}
}

func flag(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var resources = map[string]resourceCommands{
	"products": {
		header: table.Row{"ID", "Title", "Type", "Live", "Created"},
		list: listOf(
			"products",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.ProductLite], error) {
				return c.Products.List
			},
			func(p pbadmin.ProductLite) (int, string) { return p.ID, p.Title },
			func(p pbadmin.ProductLite) table.Row {
				return table.Row{p.ID, p.Title, p.Type, flag(p.Live), utils.FormatTime(p.CreatedAt)}
			},
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Product, error) {
			return c.Products.GetWithDownloads
		}),
	},
	"tags": {
		header: table.Row{"ID", "Name", "Title", "Group"},
		list: listOf(
			"tags",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Tag], error) {
				return c.Tags.List
			},
			func(t pbadmin.Tag) (int, string) { return t.ID, t.Name },
			func(t pbadmin.Tag) table.Row {
				return table.Row{t.ID, t.Name, t.Title, flag(t.IsGroup)}
			},
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Tag, error) {
			return c.Tags.Get
		}),
	},
	"categories": {
		header: table.Row{"ID", "Title", "Menu", "Sort"},
		list: listOf(
			"categories",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Category], error) {
				return c.Categories.List
			},
			func(cat pbadmin.Category) (int, string) { return cat.ID, cat.Title },
			func(cat pbadmin.Category) table.Row {
				return table.Row{cat.ID, cat.Title, flag(cat.DisplayMenu), utils.FormatPtr(cat.Sort)}
			},
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Category, error) {
			return c.Categories.Get
		}),
	},
	"orders": {
		header: table.Row{"ID", "Payed", "Price", "User", "Product", "Created"},
		list: listOf(
			"orders",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Order], error) {
				return c.Orders.List
			},
			func(o pbadmin.Order) (int, string) { return o.ID, "order #" + strconv.Itoa(o.ID) },
			func(o pbadmin.Order) table.Row {
				return table.Row{
					o.ID, flag(o.Payed), fmt.Sprintf("%.2f", o.Price),
					utils.FormatPtr(o.UserID), utils.FormatPtr(o.ProductID), utils.FormatTime(o.CreatedAt),
				}
			},
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Order, error) {
			return c.Orders.Get
		}),
	},
	"users": {
		header: table.Row{"ID", "Name", "Email"},
		list: listOf(
			"users",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.User], error) {
				return c.Users.List
			},
			func(u pbadmin.User) (int, string) { return u.ID, u.Email },
			func(u pbadmin.User) table.Row { return table.Row{u.ID, u.Name, u.Email} },
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.User, error) {
			return c.Users.Get
		}),
	},
	"articles": {
		header: table.Row{"ID", "Title", "Slug", "Live", "Created"},
		list: listOf(
			"articles",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.ArticleLite], error) {
				return c.Articles.List
			},
			func(a pbadmin.ArticleLite) (int, string) { return a.ID, a.Title },
			func(a pbadmin.ArticleLite) table.Row {
				return table.Row{a.ID, a.Title, a.Slug, flag(a.Live), utils.FormatTime(a.CreatedAt)}
			},
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Article, error) {
			return c.Articles.Get
		}),
	},
	"creators": {
		header: table.Row{"ID", "Name", "Link"},
		list: listOf(
			"creators",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Creator], error) {
				return c.Creators.List
			},
			func(cr pbadmin.Creator) (int, string) { return cr.ID, cr.Name },
			func(cr pbadmin.Creator) table.Row { return table.Row{cr.ID, cr.Name, cr.Link} },
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Creator, error) {
			return c.Creators.Get
		}),
	},
	"banners": {
		header: table.Row{"ID", "Type", "Enabled", "Weight", "Images"},
		list: listOf(
			"banners",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.BannerLite], error) {
				return c.Banners.List
			},
			func(b pbadmin.BannerLite) (int, string) { return b.ID, string(b.Type) },
			func(b pbadmin.BannerLite) table.Row {
				return table.Row{b.ID, b.Type, flag(b.Enabled), b.Weight, len(b.Images)}
			},
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Banner, error) {
			return c.Banners.Get
		}),
	},
	"payments": {
		header: table.Row{"ID", "Order", "Price (cents)", "Status", "Created"},
		list: listOf(
			"payments",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Payment], error) {
				return c.Payments.List
			},
			func(p pbadmin.Payment) (int, string) { return p.ID, string(p.Status) },
			func(p pbadmin.Payment) table.Row {
				return table.Row{p.ID, utils.FormatPtr(p.OrderID), utils.FormatPtr(p.PriceCents), p.Status, utils.FormatTime(p.CreatedAt)}
			},
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Payment, error) {
			return c.Payments.Get
		}),
	},
	"subscriptions": {
		header: table.Row{"ID", "Subscription", "Status", "User", "Start", "End"},
		list: listOf(
			"subscriptions",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Subscription], error) {
				return c.Subscriptions.List
			},
			func(s pbadmin.Subscription) (int, string) { return s.ID, s.SubscriptionID },
			func(s pbadmin.Subscription) table.Row {
				return table.Row{
					s.ID, s.SubscriptionID, s.Status, utils.FormatPtr(s.UserID),
					utils.FormatTime(s.StartDate), utils.FormatTime(s.EndDate),
				}
			},
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Subscription, error) {
			return c.Subscriptions.Get
		}),
	},
	"fonts": {
		header: table.Row{"ID", "Title", "Size", "Indent", "File"},
		list: listOf(
			"fonts",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Font], error) {
				return c.Fonts.List
			},
			func(f pbadmin.Font) (int, string) { return f.ID, f.Title },
			func(f pbadmin.Font) table.Row { return table.Row{f.ID, f.Title, f.Size, f.Indent, f.FileName} },
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Font, error) {
			return c.Fonts.Get
		}),
	},
	"formats": {
		header: table.Row{"ID", "Title"},
		list: listOf(
			"formats",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Format], error) {
				return c.Formats.List
			},
			func(f pbadmin.Format) (int, string) { return f.ID, f.Title },
			func(f pbadmin.Format) table.Row { return table.Row{f.ID, f.Title} },
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Format, error) {
			return c.Formats.Get
		}),
	},
	"compatibilities": {
		header: table.Row{"ID", "Title", "Alias", "Color"},
		list: listOf(
			"compatibilities",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Compatibility], error) {
				return c.Compatibilities.List
			},
			func(cp pbadmin.Compatibility) (int, string) { return cp.ID, cp.Title },
			func(cp pbadmin.Compatibility) table.Row { return table.Row{cp.ID, cp.Title, cp.Alias, cp.Color} },
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.Compatibility, error) {
			return c.Compatibilities.Get
		}),
	},
	"user-groups": {
		header: table.Row{"ID", "Title", "Segment"},
		list: listOf(
			"user-groups",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.UserGroup], error) {
				return c.UserGroups.List
			},
			func(g pbadmin.UserGroup) (int, string) { return g.ID, g.Title },
			func(g pbadmin.UserGroup) table.Row { return table.Row{g.ID, g.Title, utils.FormatPtr(g.SegmentID)} },
		),
		get: getOf(func(c *pbadmin.Client) func(context.Context, int) (pbadmin.UserGroup, error) {
			return c.UserGroups.Get
		}),
	},
	"licences": {
		header: table.Row{"ID", "Name", "URL"},
		list: listOf(
			"licences",
			func(c *pbadmin.Client) func(context.Context, pbadmin.ListOptions) (nova.Listing[pbadmin.Licence], error) {
				return c.Licences.List
			},
			func(l pbadmin.Licence) (int, string) { return l.ID, l.Name },
			func(l pbadmin.Licence) table.Row { return table.Row{l.ID, l.Name, l.URL} },
		),
	},
}

func lookupResource(name string) (resourceCommands, error) {
	r, ok := resources[name]
	if !ok {
		return resourceCommands{}, fmt.Errorf("unknown resource %q, expected one of %v", name, resourceNames())
	}
	return r, nil
}

func resourceNames() []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
