package nova

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcslav-v/pb-admin/lib/testutil"
)

func seedRows(panel *testutil.Panel, resource string, n int) {
	for i := 1; i <= n; i++ {
		panel.Put(resource, i, testutil.Value("title", fmt.Sprintf("row %d", i)))
	}
}

func TestWalkAllPages(t *testing.T) {
	c, panel := newTestClient(t, false)
	seedRows(panel, "products", 237)

	ctx := context.Background()
	w := c.Walk("/nova-api/products", nil, WalkOptions{PageSize: 100})
	var ids []int
	for w.Next(ctx) {
		ids = append(ids, int(w.Row().ID))
	}
	require.NoError(t, w.Err())
	require.Len(t, ids, 237)
	require.Equal(t, 1, ids[0])
	require.Equal(t, 237, ids[236])
	require.Equal(t, 3, w.Requests())
	require.Equal(t, 237, w.Total())

	requests := panel.RequestsTo(http.MethodGet, "/nova-api/products")
	require.Len(t, requests, 3)
	require.Equal(t, "100", requests[0].Query.Get("perPage"))
	require.Equal(t, "", requests[0].Query.Get("page"))
	require.Equal(t, "2", requests[1].Query.Get("page"))
	require.Equal(t, "3", requests[2].Query.Get("page"))
}

func TestWalkLimitStopsEarly(t *testing.T) {
	c, panel := newTestClient(t, false)
	seedRows(panel, "products", 237)

	ctx := context.Background()
	w := c.Walk("/nova-api/products", nil, WalkOptions{PageSize: 100, Limit: 50})
	n := 0
	for w.Next(ctx) {
		n++
	}
	require.NoError(t, w.Err())
	require.Equal(t, 50, n)
	require.Equal(t, 1, w.Requests())

	// a limit on a page boundary does not fetch the following page
	w = c.Walk("/nova-api/products", nil, WalkOptions{PageSize: 100, Limit: 100})
	n = 0
	for w.Next(ctx) {
		n++
	}
	require.Equal(t, 100, n)
	require.Equal(t, 1, w.Requests())
}

func TestWalkEmptyListing(t *testing.T) {
	c, _ := newTestClient(t, false)

	w := c.Walk("/nova-api/products", nil, WalkOptions{})
	require.False(t, w.Next(context.Background()))
	require.NoError(t, w.Err())
	require.Equal(t, 1, w.Requests())
}

func pageJSON(w http.ResponseWriter, ids []int, next any) {
	rows := make([]map[string]any, len(ids))
	for i, id := range ids {
		rows[i] = map[string]any{
			"id":     map[string]int{"value": id},
			"fields": []testutil.Field{testutil.Value("title", fmt.Sprintf("row %d", id))},
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"resources":     rows,
		"next_page_url": next,
	})
}

func TestWalkNextPageParamsOverwrite(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Handle(http.MethodGet, "/nova-api/things", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			pageJSON(w, []int{3}, nil)
			return
		}
		pageJSON(w, []int{1, 2}, panel.URL()+"/nova-api/things?page=2&perPage=2&search=lamp")
	})

	params := url.Values{"search": {"desk"}, "trashed": {""}}
	w := c.Walk("/nova-api/things", params, WalkOptions{PageSize: 50})
	var ids []int
	for w.Next(context.Background()) {
		ids = append(ids, int(w.Row().ID))
	}
	require.NoError(t, w.Err())
	require.Equal(t, []int{1, 2, 3}, ids)

	requests := panel.RequestsTo(http.MethodGet, "/nova-api/things")
	require.Len(t, requests, 2)
	require.Equal(t, "desk", requests[0].Query.Get("search"))
	require.Equal(t, "50", requests[0].Query.Get("perPage"))
	require.Equal(t, "lamp", requests[1].Query.Get("search"))
	require.Equal(t, "2", requests[1].Query.Get("perPage"))
	require.True(t, requests[1].Query.Has("trashed"))

	// the caller's params are not modified
	require.Equal(t, "desk", params.Get("search"))
}

func TestWalkFailedPageAborts(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Handle(http.MethodGet, "/nova-api/things", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"Server Error"}`))
			return
		}
		pageJSON(w, []int{1, 2}, panel.URL()+"/nova-api/things?page=2")
	})

	w := c.Walk("/nova-api/things", nil, WalkOptions{})
	var ids []int
	for w.Next(context.Background()) {
		ids = append(ids, int(w.Row().ID))
	}
	require.Equal(t, []int{1, 2}, ids)
	require.ErrorIs(t, w.Err(), ErrRemote)

	var remote *RemoteError
	require.True(t, errors.As(w.Err(), &remote))
	require.Equal(t, http.StatusInternalServerError, remote.Status)

	// a failed walker stays failed
	require.False(t, w.Next(context.Background()))
	require.Equal(t, 2, w.Requests())
}

func decodeTitle(row Row) (string, error) {
	v, err := Decode(row.Fields, nil)
	if err != nil {
		return "", err
	}
	if err := v.Require("things", "title"); err != nil {
		return "", err
	}
	return v.String("title"), nil
}

func TestCollectPolicies(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Put("things", 1, testutil.Value("title", "one"))
	panel.Put("things", 2, testutil.Value("name", "no title"))
	panel.Put("things", 3, testutil.Value("title", "three"))

	ctx := context.Background()

	listing, err := Collect(ctx, c.Walk("/nova-api/things", nil, WalkOptions{}), SkipAndRecord, "things", decodeTitle)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "three"}, listing.Items)
	require.Len(t, listing.Skipped, 1)
	require.Equal(t, 2, listing.Skipped[0].RowID)
	require.ErrorIs(t, listing.Skipped[0], ErrDataShape)
	skipped := listing.Skipped[0]

	listing, err = Collect(ctx, c.Walk("/nova-api/things", nil, WalkOptions{}), FailFast, "things", decodeTitle)
	require.ErrorIs(t, err, ErrDataShape)
	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	require.Equal(t, 2, rowErr.RowID)
	require.Equal(t, "things", rowErr.Resource)

	// skipped rows match the same way once wrapped
	wrapped := fmt.Errorf("export: %w", skipped)
	require.True(t, errors.As(wrapped, &rowErr))
	require.Equal(t, 2, rowErr.RowID)
	require.Equal(t, []string{"one"}, listing.Items)
}
