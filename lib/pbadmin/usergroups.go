package pbadmin

import (
	"context"
	"log/slog"

	"github.com/vcslav-v/pb-admin/lib/nova"
	"go.opentelemetry.io/otel/attribute"
)

// groupMembers is attached from the user side, the panel has no attach
// endpoint on user-groups.
var groupMembers = nova.Relation{
	Resource:            "users",
	ViaResource:         "user-groups",
	ViaRelationship:     "users",
	Type:                nova.MorphToMany,
	Inverse:             true,
	InverseRelationship: "groups",
}

type UserGroup struct {
	ID        int
	Title     string
	SegmentID *int
}

type UserGroups struct {
	r resource
}

func newUserGroups(c *nova.Client) *UserGroups {
	return &UserGroups{r: resource{
		client: c,
		name:   "user-groups",
		kinds:  nova.Kinds{"options": nova.OptionGroup},
	}}
}

func decodeUserGroup(id int, v nova.Values) UserGroup {
	return UserGroup{
		ID:        id,
		Title:     v.String("title"),
		SegmentID: v.IntPtr("segment_id"),
	}
}

// List reads every group. The segment of a group is only part of its
// detail, so each listed group is read once more.
func (g *UserGroups) List(ctx context.Context, opts ListOptions) (nova.Listing[UserGroup], error) {
	listing, err := listResource(ctx, g.r, opts, nil, func(row nova.Row, v nova.Values) (UserGroup, error) {
		return decodeUserGroup(int(row.ID), v), nil
	})
	if err != nil {
		return listing, err
	}
	for i, group := range listing.Items {
		detailed, err := g.Get(ctx, group.ID)
		if err != nil {
			return listing, err
		}
		listing.Items[i].SegmentID = detailed.SegmentID
	}
	return listing, nil
}

func (g *UserGroups) Get(ctx context.Context, id int) (UserGroup, error) {
	rec, err := g.r.detail(ctx, id)
	if err != nil {
		return UserGroup{}, err
	}
	return decodeUserGroup(id, rec.Values), nil
}

// Members lists the ids of the users in a group.
func (g *UserGroups) Members(ctx context.Context, groupID int) ([]int, error) {
	return g.r.client.CurrentEdges(ctx, groupMembers, groupID)
}

// AttachUsers adds users to a group, one request per user.
func (g *UserGroups) AttachUsers(ctx context.Context, groupID int, userIDs []int) error {
	if err := g.r.client.RequireWrite("attach users"); err != nil {
		return err
	}
	if err := requireID(g.r.name, groupID); err != nil {
		return err
	}
	return g.r.client.Attach(ctx, groupMembers, groupID, userIDs)
}

// DetachUsers removes users from a group in batches.
func (g *UserGroups) DetachUsers(ctx context.Context, groupID int, userIDs []int) error {
	if err := g.r.client.RequireWrite("detach users"); err != nil {
		return err
	}
	if err := requireID(g.r.name, groupID); err != nil {
		return err
	}
	return g.r.client.Detach(ctx, groupMembers, groupID, userIDs)
}

// SetMembers makes the members of a group exactly userIDs.
func (g *UserGroups) SetMembers(ctx context.Context, groupID int, userIDs []int) (nova.Diff, error) {
	if err := g.r.client.RequireWrite("set members"); err != nil {
		return nova.Diff{}, err
	}
	if err := requireID(g.r.name, groupID); err != nil {
		return nova.Diff{}, err
	}

	ctx, span := tracer.Start(ctx, "user-groups:SetMembers")
	defer span.End()

	span.SetAttributes(attribute.Int("group", groupID), attribute.Int("desired", len(userIDs)))

	diff, err := g.r.client.Reconcile(ctx, groupMembers, groupID, userIDs)
	if err != nil {
		return diff, err
	}
	slog.InfoContext(
		ctx, "synced group members",
		"group", groupID,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
	)
	return diff, nil
}
