package pbadmin

import (
	"context"
	"log/slog"

	"github.com/vcslav-v/pb-admin/lib/nova"
)

// Client exposes every resource of the panel over one session.
type Client struct {
	session *nova.Client

	Products        *Products
	Tags            *Tags
	Categories      *Categories
	Orders          *Orders
	Users           *Users
	Articles        *Articles
	Creators        *Creators
	Banners         *Banners
	Payments        *Payments
	Subscriptions   *Subscriptions
	Fonts           *Fonts
	Formats         *Formats
	Compatibilities *Compatibilities
	UserGroups      *UserGroups
	Licences        *Licences
	Tools           *Tools
}

// New logs in with cfg and returns a ready client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	ctx, span := tracer.Start(ctx, "New")
	defer span.End()

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	session, err := nova.Dial(ctx, cfg.Options())
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "connected to panel", "site", cfg.SiteURL, "edit_mode", cfg.EditMode)
	return NewWithSession(session), nil
}

// NewWithSession wraps an already connected session.
func NewWithSession(session *nova.Client) *Client {
	return &Client{
		session:         session,
		Products:        newProducts(session),
		Tags:            newTags(session),
		Categories:      newCategories(session),
		Orders:          newOrders(session),
		Users:           newUsers(session),
		Articles:        newArticles(session),
		Creators:        newCreators(session),
		Banners:         newBanners(session),
		Payments:        newPayments(session),
		Subscriptions:   newSubscriptions(session),
		Fonts:           newFonts(session),
		Formats:         newFormats(session),
		Compatibilities: newCompatibilities(session),
		UserGroups:      newUserGroups(session),
		Licences:        newLicences(session),
		Tools:           newTools(session),
	}
}

func (c *Client) Session() *nova.Client {
	return c.session
}

func (c *Client) Close() {
	c.session.Close()
}
