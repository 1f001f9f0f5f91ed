package nova

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vcslav-v/pb-admin/lib/testutil"
)

var bannerGroups = Relation{
	Resource:        "user-groups",
	ViaResource:     "banners",
	ViaRelationship: "groups",
	Type:            MorphToMany,
}

var groupMembers = Relation{
	Resource:            "users",
	ViaResource:         "user-groups",
	ViaRelationship:     "users",
	Type:                MorphToMany,
	Inverse:             true,
	InverseRelationship: "groups",
}

func TestDifference(t *testing.T) {
	cases := []struct {
		name             string
		current, desired []int
		expect           Diff
	}{
		{"swap", []int{1, 2, 3}, []int{2, 3, 4}, Diff{Added: []int{4}, Removed: []int{1}}},
		{"same", []int{1, 2}, []int{2, 1}, Diff{}},
		{"from empty", nil, []int{5, 5, 6}, Diff{Added: []int{5, 6}}},
		{"to empty", []int{7}, nil, Diff{Removed: []int{7}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			diff := Difference(c.current, c.desired)
			if d := cmp.Diff(c.expect, diff); d != "" {
				t.Fatal(d)
			}
		})
	}
}

func TestReconcileIssuesOnlyTheDifference(t *testing.T) {
	c, panel := newTestClient(t, true)
	panel.SetEdges("banners", 7, "groups", 1, 2, 3)

	ctx := context.Background()
	diff, err := c.Reconcile(ctx, bannerGroups, 7, []int{2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, Diff{Added: []int{4}, Removed: []int{1}}, diff)

	attaches := panel.RequestsTo(http.MethodPost, "/nova-api/banners/7/attach-morphed/user-groups")
	require.Len(t, attaches, 1)
	require.Equal(t, "4", attaches[0].Form.Get("user-groups"))
	require.Equal(t, "false", attaches[0].Form.Get("user-groups_trashed"))
	require.Equal(t, "groups", attaches[0].Form.Get("viaRelationship"))
	require.Equal(t, "attach", attaches[0].Query.Get("editMode"))

	detaches := panel.RequestsTo(http.MethodDelete, "/nova-api/user-groups/detach")
	require.Len(t, detaches, 1)
	require.Equal(t, []string{"1"}, detaches[0].Query["resources[]"])
	require.Equal(t, "banners", detaches[0].Query.Get("viaResource"))
	require.Equal(t, "7", detaches[0].Query.Get("viaResourceId"))

	require.ElementsMatch(t, []int{2, 3, 4}, panel.Edges("banners", 7, "groups"))

	// a second run has nothing left to do
	panel.ResetRequests()
	diff, err = c.Reconcile(ctx, bannerGroups, 7, []int{2, 3, 4})
	require.NoError(t, err)
	require.True(t, diff.Empty())
	require.Empty(t, panel.RequestsTo(http.MethodPost, "/nova-api/"))
	require.Empty(t, panel.RequestsTo(http.MethodDelete, "/nova-api/"))
}

func TestCurrentEdgesListsThroughRelation(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.SetEdges("user-groups", 3, "users", 10, 11, 12)

	ids, err := c.CurrentEdges(context.Background(), groupMembers, 3)
	require.NoError(t, err)
	require.Equal(t, []int{10, 11, 12}, ids)

	listings := panel.RequestsTo(http.MethodGet, "/nova-api/users")
	require.Len(t, listings, 1)
	require.Equal(t, "morphToMany", listings[0].Query.Get("relationshipType"))
	require.Equal(t, "users", listings[0].Query.Get("viaRelationship"))
}

func TestInverseAttach(t *testing.T) {
	c, panel := newTestClient(t, true)
	panel.LinkInverse("users", "groups", "user-groups", "users")

	err := c.Attach(context.Background(), groupMembers, 3, []int{10, 11})
	require.NoError(t, err)

	posts := panel.RequestsTo(http.MethodPost, "/nova-api/users/")
	require.Len(t, posts, 2)
	require.Equal(t, "/nova-api/users/10/attach-morphed/user-groups", posts[0].Path)
	require.Equal(t, "3", posts[0].Form.Get("user-groups"))
	require.Equal(t, "groups", posts[0].Form.Get("viaRelationship"))
	require.Equal(t, []int{10, 11}, panel.Edges("user-groups", 3, "users"))
}

func TestAttachPacing(t *testing.T) {
	panel := testutil.NewPanel(t)
	c, err := Dial(context.Background(), Options{
		BaseURL:     panel.URL(),
		Login:       panel.Login,
		Password:    panel.Password,
		WriteMode:   true,
		AttachDelay: time.Millisecond * 30,
	})
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	err = c.Attach(context.Background(), bannerGroups, 1, []int{1, 2, 3})
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), time.Millisecond*60)
}

func TestAttachStopsOnCancel(t *testing.T) {
	panel := testutil.NewPanel(t)
	c, err := Dial(context.Background(), Options{
		BaseURL:     panel.URL(),
		Login:       panel.Login,
		Password:    panel.Password,
		WriteMode:   true,
		AttachDelay: time.Hour,
	})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()
	err = c.Attach(ctx, bannerGroups, 1, []int{1, 2})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, []int{1}, panel.Edges("banners", 1, "groups"))
}

func TestAttachFailureAborts(t *testing.T) {
	c, panel := newTestClient(t, true)
	panel.SetEdges("banners", 1, "groups", 2)

	err := c.Attach(context.Background(), bannerGroups, 1, []int{1, 2, 3})
	require.ErrorIs(t, err, ErrRemote)
	require.Len(t, panel.RequestsTo(http.MethodPost, "/nova-api/banners/1/attach-morphed"), 2)
	require.Equal(t, []int{2, 1}, panel.Edges("banners", 1, "groups"))
}

func TestDetachBatches(t *testing.T) {
	c, panel := newTestClient(t, true)
	ids := make([]int, 250)
	for i := range ids {
		ids[i] = i + 1
	}
	panel.SetEdges("user-groups", 9, "users", ids...)

	err := c.Detach(context.Background(), groupMembers, 9, ids)
	require.NoError(t, err)

	detaches := panel.RequestsTo(http.MethodDelete, "/nova-api/users/detach")
	require.Len(t, detaches, 3)
	require.Len(t, detaches[0].Query["resources[]"], 100)
	require.Len(t, detaches[1].Query["resources[]"], 100)
	require.Len(t, detaches[2].Query["resources[]"], 50)
	require.Empty(t, panel.Edges("user-groups", 9, "users"))
}

func TestAttachable(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Put("tags", 5, testutil.Value("tags", "[1, 2, 2, 9]"))

	ids, err := c.Attachable(context.Background(), "tags", 5, "tags")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 9}, ids)
}

func TestRelationWritesRequireWriteMode(t *testing.T) {
	c, panel := newTestClient(t, false)
	ctx := context.Background()

	err := c.Attach(ctx, bannerGroups, 1, []int{1})
	require.ErrorIs(t, err, ErrPermission)
	err = c.Detach(ctx, bannerGroups, 1, []int{1})
	require.ErrorIs(t, err, ErrPermission)
	_, err = c.Reconcile(ctx, bannerGroups, 1, []int{1})
	require.ErrorIs(t, err, ErrPermission)

	require.Empty(t, panel.Requests())
}
