package pbadmin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vcslav-v/pb-admin/lib/imageutil"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const apiRoot = "/nova-api/"

// ListOptions narrows a listing. A zero Limit lists everything, a zero
// PageSize uses nova.DefaultPageSize.
type ListOptions struct {
	Search   string
	Limit    int
	PageSize int
	Policy   nova.RowPolicy
}

// resource is the generic part of every module: one panel resource name
// and the wire kinds of its fields.
type resource struct {
	client *nova.Client
	name   string
	kinds  nova.Kinds
}

// record is one decoded detail or update-fields response.
type record struct {
	ID     int
	Fields nova.FieldList
	Values nova.Values
}

func (r resource) path(id ...int) string {
	p := apiRoot + r.name
	for _, part := range id {
		p += "/" + strconv.Itoa(part)
	}
	return p
}

func listResource[T any](ctx context.Context, r resource, opts ListOptions, params url.Values, decode func(nova.Row, nova.Values) (T, error)) (nova.Listing[T], error) {
	ctx, span := tracer.Start(ctx, r.name+":List")
	defer span.End()

	span.SetAttributes(
		attribute.String("search", opts.Search),
		attribute.Int("limit", opts.Limit),
		attribute.String("policy", opts.Policy.String()),
	)

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("search", opts.Search)

	w := r.client.Walk(r.path(), query, nova.WalkOptions{
		PageSize: opts.PageSize,
		Limit:    opts.Limit,
	})
	listing, err := nova.Collect(ctx, w, opts.Policy, r.name, func(row nova.Row) (T, error) {
		v, err := nova.Decode(row.Fields, r.kinds)
		if err != nil {
			var zero T
			return zero, err
		}
		return decode(row, v)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list "+r.name)
		return listing, err
	}
	return listing, nil
}

func (r resource) decodeRecord(id int, fields nova.FieldList) (record, error) {
	v, err := nova.Decode(fields, r.kinds)
	if err != nil {
		return record{}, err
	}
	return record{ID: id, Fields: fields, Values: v}, nil
}

// detail reads /nova-api/{resource}/{id}.
func (r resource) detail(ctx context.Context, id int) (record, error) {
	ctx, span := tracer.Start(ctx, r.name+":detail")
	defer span.End()

	span.SetAttributes(attribute.Int("id", id))

	var res nova.Detail
	err := r.client.GetJSON(ctx, r.path(id), nil, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch detail")
		return record{}, err
	}
	rec, err := r.decodeRecord(id, res.Resource.Fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode detail")
		return record{}, err
	}
	return rec, nil
}

// updateFields reads the pre-populated edit form of a record.
func (r resource) updateFields(ctx context.Context, id int) (record, error) {
	ctx, span := tracer.Start(ctx, r.name+":updateFields")
	defer span.End()

	span.SetAttributes(attribute.Int("id", id))

	params := url.Values{}
	params.Set("editing", "true")
	params.Set("editMode", "update")
	params.Set("viaResource", "")
	params.Set("viaResourceId", "")
	params.Set("viaRelationship", "")

	var res nova.UpdateFields
	err := r.client.GetJSON(ctx, r.path(id)+"/update-fields", params, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch update fields")
		return record{}, err
	}
	rec, err := r.decodeRecord(id, res.Fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode update fields")
		return record{}, err
	}
	return rec, nil
}

// create submits a new record and returns the identity the panel assigned.
func (r resource) create(ctx context.Context, form *nova.Form) (int, error) {
	ctx, span := tracer.Start(ctx, r.name+":create")
	defer span.End()

	params := url.Values{}
	params.Set("editing", "true")
	params.Set("editMode", "create")

	form.MarkCreate(time.Now())
	var created nova.Created
	err := r.client.Submit(ctx, r.path(), params, form, &created)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create")
		return 0, err
	}
	id := created.Identity()
	if id == 0 {
		err := &nova.DataShapeError{Resource: r.name, Attribute: "id", Reason: "create response has no identity"}
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int("id", id))
	return id, nil
}

func (r resource) update(ctx context.Context, id int, form *nova.Form) error {
	ctx, span := tracer.Start(ctx, r.name+":update")
	defer span.End()

	span.SetAttributes(attribute.Int("id", id))

	params := url.Values{}
	params.Set("editing", "true")
	params.Set("editMode", "update")

	form.MarkUpdate(time.Now())
	err := r.client.Submit(ctx, r.path(id), params, form, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update")
		return err
	}
	return nil
}

// destroy deletes records. The panel does not guarantee that deleting a
// missing record succeeds.
func (r resource) destroy(ctx context.Context, ids ...int) error {
	if err := r.client.RequireWrite("delete " + r.name); err != nil {
		return err
	}
	for _, id := range ids {
		if err := requireID(r.name, id); err != nil {
			return err
		}
	}

	ctx, span := tracer.Start(ctx, r.name+":delete")
	defer span.End()

	params := url.Values{}
	for _, id := range ids {
		params.Add("resources[]", strconv.Itoa(id))
	}
	err := r.client.Delete(ctx, r.path(), params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete")
		return err
	}
	return nil
}

// action runs a panel action on the given records.
func (r resource) action(ctx context.Context, name string, ids []int) error {
	ctx, span := tracer.Start(ctx, r.name+":action")
	defer span.End()

	span.SetAttributes(attribute.String("action", name), attribute.Int("count", len(ids)))

	params := url.Values{}
	params.Set("action", name)
	params.Set("pivotAction", "false")
	params.Set("search", "")
	// base64 of an empty filter list
	params.Set("filters", "W10=")
	params.Set("trashed", "")

	resources := make([]string, len(ids))
	for i, id := range ids {
		resources[i] = strconv.Itoa(id)
	}
	form := nova.NewForm().Set("resources", strings.Join(resources, ","))

	err := r.client.Submit(ctx, r.path()+"/action", params, form, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to run action")
		return err
	}
	return nil
}

func (r resource) attachable(ctx context.Context, id int, relation string) ([]int, error) {
	return r.client.Attachable(ctx, r.name, id, relation)
}

// prepareImages makes every pending image uploadable.
func (r resource) prepareImages(ctx context.Context, bounds imageutil.Bounds, images ...*nova.Image) error {
	for _, img := range images {
		err := r.client.PrepareImage(ctx, img, bounds)
		if err != nil {
			return fmt.Errorf("%s: %w", r.name, err)
		}
	}
	return nil
}

func requireNew(resource string, id int) error {
	if id != 0 {
		return &nova.ValidationError{Resource: resource, Reason: "a new record must not have an identity"}
	}
	return nil
}

func requireID(resource string, id int) error {
	if id == 0 {
		return &nova.ValidationError{Resource: resource, Reason: "identity is required"}
	}
	return nil
}

func findField(fields []nova.Field, attribute string) (nova.Field, bool) {
	for _, f := range fields {
		if f.Attribute == attribute {
			return f, true
		}
		if found, ok := findField(f.Fields, attribute); ok {
			return found, true
		}
	}
	return nova.Field{}, false
}

// timeValue is nil for absent or empty values and a DataShapeError for
// values that are not timestamps.
func timeValue(v nova.Values, resource, name string) (*time.Time, error) {
	s := v.StringPtr(name)
	if s == nil || *s == "" {
		return nil, nil
	}
	t := v.TimePtr(name)
	if t == nil {
		return nil, &nova.DataShapeError{Resource: resource, Attribute: name, Reason: fmt.Sprintf("invalid timestamp %q", *s)}
	}
	return t, nil
}

// cents converts a price in currency units to cents.
func cents(v nova.Values, name string) *int {
	s := v.StringPtr(name)
	if s == nil || *s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	c := int(math.Round(f * 100))
	return &c
}

// units renders cents as whole currency units, the way the panel stores
// prices.
func units(c *int) *string {
	if c == nil {
		return nil
	}
	s := strconv.Itoa(*c / 100)
	return &s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// fieldLabel is the display value of a relation field, e.g. the code of a
// belongs-to coupon.
func fieldLabel(fields []nova.Field, attribute string) string {
	f, ok := findField(fields, attribute)
	if !ok {
		return ""
	}
	var label string
	if json.Unmarshal(f.Value, &label) != nil {
		return ""
	}
	return label
}
