package nova

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultPageSize = 100

type WalkOptions struct {
	// PageSize is sent as perPage, DefaultPageSize when zero.
	PageSize int
	// Limit caps the number of rows yielded, zero means no cap.
	Limit int
}

// Walker iterates the rows of a paginated listing, fetching pages lazily.
//
//	w := client.Walk("/nova-api/tags", nil, nova.WalkOptions{})
//	for w.Next(ctx) {
//		row := w.Row()
//	}
//	if err := w.Err(); err != nil { ... }
type Walker struct {
	client *Client
	path   string
	params url.Values
	limit  int

	page     []Row
	pos      int
	row      Row
	yielded  int
	requests int
	total    int
	last     bool
	err      error
}

// Walk prepares a listing walk. No request is sent until the first Next.
func (c *Client) Walk(path string, params url.Values, opts WalkOptions) *Walker {
	merged := url.Values{}
	for k, v := range params {
		merged[k] = append([]string(nil), v...)
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	merged.Set("perPage", strconv.Itoa(pageSize))

	return &Walker{
		client: c,
		path:   path,
		params: merged,
		limit:  opts.Limit,
	}
}

// Next advances to the next row. It returns false when the listing is
// exhausted, the limit was reached or a page failed, see Err.
func (w *Walker) Next(ctx context.Context) bool {
	if w.err != nil {
		return false
	}
	if w.limit > 0 && w.yielded >= w.limit {
		return false
	}
	for w.pos >= len(w.page) {
		if w.last {
			return false
		}
		err := w.fetch(ctx)
		if err != nil {
			w.err = err
			return false
		}
	}

	w.row = w.page[w.pos]
	w.pos++
	w.yielded++
	return true
}

func (w *Walker) fetch(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "walker:fetch")
	defer span.End()

	span.SetAttributes(
		attribute.String("path", w.path),
		attribute.Int("page", w.requests+1),
	)

	var page Page
	w.requests++
	err := w.client.GetJSON(ctx, w.path, w.params, &page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return err
	}

	w.page = page.Resources
	w.pos = 0
	w.total = page.Total

	// an empty page ends the walk even if the panel advertises another one
	if page.NextPageURL == nil || *page.NextPageURL == "" || len(page.Resources) == 0 {
		w.last = true
		return nil
	}
	next, err := url.Parse(*page.NextPageURL)
	if err != nil {
		span.SetStatus(codes.Error, "invalid next page url")
		return &DataShapeError{Resource: w.path, Attribute: "next_page_url", Reason: err.Error()}
	}
	for k, v := range next.Query() {
		w.params[k] = v
	}
	return nil
}

func (w *Walker) Row() Row {
	return w.row
}

func (w *Walker) Err() error {
	return w.err
}

// Requests is the number of page requests sent so far.
func (w *Walker) Requests() int {
	return w.requests
}

// Total is the row count reported by the last page, zero when the panel
// does not report one.
func (w *Walker) Total() int {
	return w.total
}

// RowPolicy decides what Collect does with rows that fail to decode.
type RowPolicy int

const (
	// FailFast aborts the listing on the first bad row.
	FailFast RowPolicy = iota
	// SkipAndRecord logs and records bad rows and keeps going.
	SkipAndRecord
)

func (p RowPolicy) String() string {
	if p == SkipAndRecord {
		return "skip-and-record"
	}
	return "fail-fast"
}

type Listing[T any] struct {
	Items   []T
	Skipped []*RowError
}

// Collect drains a walker, decoding every row. On error the rows decoded
// so far are returned along with it.
func Collect[T any](ctx context.Context, w *Walker, policy RowPolicy, resource string, decode func(Row) (T, error)) (Listing[T], error) {
	var listing Listing[T]
	for w.Next(ctx) {
		row := w.Row()
		item, err := decode(row)
		if err == nil {
			listing.Items = append(listing.Items, item)
			continue
		}

		rowErr := &RowError{Resource: resource, RowID: int(row.ID), Err: err}
		if policy == FailFast {
			return listing, rowErr
		}
		slog.WarnContext(
			ctx, "skipping row",
			"resource", resource,
			"id", int(row.ID),
			"err", err,
		)
		listing.Skipped = append(listing.Skipped, rowErr)
	}
	return listing, w.Err()
}
