package pbadmin

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/testutil"
)

func newGroupsPanel(t *testing.T, write bool) (*Client, *testutil.Panel) {
	c, panel := newTestClient(t, write)
	panel.Put("user-groups", 4, testutil.Value("title", "Subscribers"), testutil.OptionGroup(testutil.Value("segment_id", "77")))
	panel.Put("user-groups", 5, testutil.Value("title", "Authors"))
	panel.LinkInverse("users", "groups", "user-groups", "users")
	return c, panel
}

func TestListUserGroupsReadsSegments(t *testing.T) {
	c, _ := newGroupsPanel(t, false)

	listing, err := c.UserGroups.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []UserGroup{
		{ID: 4, Title: "Subscribers", SegmentID: intPtr(77)},
		{ID: 5, Title: "Authors"},
	}, listing.Items)
}

func TestGroupMembers(t *testing.T) {
	c, panel := newGroupsPanel(t, true)
	panel.SetEdges("user-groups", 4, "users", 1, 2)

	ctx := context.Background()
	members, err := c.UserGroups.Members(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, members)

	require.NoError(t, c.UserGroups.AttachUsers(ctx, 4, []int{8, 9}))
	attaches := panel.RequestsTo(http.MethodPost, "/nova-api/users/")
	require.Len(t, attaches, 2)
	require.Equal(t, "/nova-api/users/8/attach-morphed/user-groups", attaches[0].Path)
	require.Equal(t, "4", attaches[0].Form.Get("user-groups"))
	require.Equal(t, "groups", attaches[0].Form.Get("viaRelationship"))
	require.Equal(t, []int{1, 2, 8, 9}, panel.Edges("user-groups", 4, "users"))

	require.NoError(t, c.UserGroups.DetachUsers(ctx, 4, []int{1, 8}))
	detaches := panel.RequestsTo(http.MethodDelete, "/nova-api/users/detach")
	require.Len(t, detaches, 1)
	require.Equal(t, []string{"1", "8"}, detaches[0].Query["resources[]"])
	require.Equal(t, []int{2, 9}, panel.Edges("user-groups", 4, "users"))
}

func TestSetMembers(t *testing.T) {
	c, panel := newGroupsPanel(t, true)
	panel.SetEdges("user-groups", 4, "users", 1, 2, 3)

	diff, err := c.UserGroups.SetMembers(context.Background(), 4, []int{2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, nova.Diff{Added: []int{4}, Removed: []int{1}}, diff)
	require.Len(t, panel.RequestsTo(http.MethodPost, "/nova-api/users/4/attach-morphed/user-groups"), 1)
	require.Len(t, panel.RequestsTo(http.MethodDelete, "/nova-api/users/detach"), 1)
	require.ElementsMatch(t, []int{2, 3, 4}, panel.Edges("user-groups", 4, "users"))
}

func TestGroupWritesNeedIdentity(t *testing.T) {
	c, panel := newGroupsPanel(t, true)

	err := c.UserGroups.AttachUsers(context.Background(), 0, []int{1})
	require.ErrorIs(t, err, nova.ErrValidation)
	require.Empty(t, panel.Requests())
}
