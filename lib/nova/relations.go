package nova

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const detachBatchSize = 100

type RelationType string

const (
	MorphToMany   RelationType = "morphToMany"
	BelongsToMany RelationType = "belongsToMany"
)

// Relation describes a many-to-many edge set as the panel exposes it: the
// members are rows of Resource, listed through the owner ViaResource and its
// ViaRelationship.
type Relation struct {
	Resource        string
	ViaResource     string
	ViaRelationship string
	Type            RelationType

	// Inverse relations are attached from the member side, posting the
	// owner to /nova-api/{Resource}/{member}/attach-morphed/{ViaResource}
	// under InverseRelationship.
	Inverse             bool
	InverseRelationship string
}

func (r Relation) name() string {
	return r.ViaResource + "." + r.ViaRelationship
}

// Diff is the outcome of a reconcile.
type Diff struct {
	Added   []int
	Removed []int
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// CurrentEdges lists the ids currently related to owner.
func (c *Client) CurrentEdges(ctx context.Context, rel Relation, ownerID int) ([]int, error) {
	ctx, span := tracer.Start(ctx, "relations:CurrentEdges")
	defer span.End()

	span.SetAttributes(attribute.String("relation", rel.name()), attribute.Int("owner", ownerID))

	params := url.Values{}
	params.Set("search", "")
	params.Set("viaResource", rel.ViaResource)
	params.Set("viaResourceId", strconv.Itoa(ownerID))
	params.Set("viaRelationship", rel.ViaRelationship)
	params.Set("relationshipType", string(rel.Type))

	ids := []int{}
	w := c.Walk("/nova-api/"+rel.Resource, params, WalkOptions{})
	for w.Next(ctx) {
		ids = append(ids, int(w.Row().ID))
	}
	if err := w.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list relation")
		return nil, err
	}
	return ids, nil
}

// Attachable returns the ids selected in a nova-attach-many field of a
// resource, without duplicates.
func (c *Client) Attachable(ctx context.Context, resource string, id int, relation string) ([]int, error) {
	ctx, span := tracer.Start(ctx, "relations:Attachable")
	defer span.End()

	var res struct {
		Selected []ID `json:"selected"`
	}
	path := fmt.Sprintf("/nova-vendor/nova-attach-many/%s/%d/attachable/%s", resource, id, relation)
	err := c.GetJSON(ctx, path, nil, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch attachable")
		return nil, err
	}

	seen := map[ID]bool{}
	ids := []int{}
	for _, sel := range res.Selected {
		if seen[sel] {
			continue
		}
		seen[sel] = true
		ids = append(ids, int(sel))
	}
	return ids, nil
}

func (c *Client) attachOne(ctx context.Context, rel Relation, ownerID, id int) error {
	params := url.Values{}
	params.Set("editing", "true")
	params.Set("editMode", "attach")

	form := NewForm()
	var path string
	if rel.Inverse {
		path = fmt.Sprintf("/nova-api/%s/%d/attach-morphed/%s", rel.Resource, id, rel.ViaResource)
		form.SetInt(rel.ViaResource, ownerID)
		form.Set(rel.ViaResource+"_trashed", "false")
		form.Set("viaRelationship", rel.InverseRelationship)
	} else {
		path = fmt.Sprintf("/nova-api/%s/%d/attach-morphed/%s", rel.ViaResource, ownerID, rel.Resource)
		form.SetInt(rel.Resource, id)
		form.Set(rel.Resource+"_trashed", "false")
		form.Set("viaRelationship", rel.ViaRelationship)
	}
	return c.Submit(ctx, path, params, form, nil)
}

// Attach relates ids to owner, one request per id, paced by the client's
// attach delay.
func (c *Client) Attach(ctx context.Context, rel Relation, ownerID int, ids []int) error {
	if err := c.RequireWrite("attach " + rel.name()); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "relations:Attach")
	defer span.End()

	span.SetAttributes(
		attribute.String("relation", rel.name()),
		attribute.Int("owner", ownerID),
		attribute.Int("count", len(ids)),
	)

	for i, id := range ids {
		if i > 0 && c.opts.AttachDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.opts.AttachDelay):
			}
		}
		err := c.attachOne(ctx, rel, ownerID, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to attach")
			return fmt.Errorf("attach %d to %s %d: %w", id, rel.ViaResource, ownerID, err)
		}
	}
	return nil
}

// Detach removes the edges between owner and ids, in batches.
func (c *Client) Detach(ctx context.Context, rel Relation, ownerID int, ids []int) error {
	if err := c.RequireWrite("detach " + rel.name()); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "relations:Detach")
	defer span.End()

	span.SetAttributes(
		attribute.String("relation", rel.name()),
		attribute.Int("owner", ownerID),
		attribute.Int("count", len(ids)),
	)

	for start := 0; start < len(ids); start += detachBatchSize {
		batch := ids[start:min(start+detachBatchSize, len(ids))]
		params := url.Values{}
		params.Set("viaResource", rel.ViaResource)
		params.Set("viaResourceId", strconv.Itoa(ownerID))
		params.Set("viaRelationship", rel.ViaRelationship)
		for _, id := range batch {
			params.Add("resources[]", strconv.Itoa(id))
		}
		err := c.Delete(ctx, "/nova-api/"+rel.Resource+"/detach", params)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to detach")
			return fmt.Errorf("detach from %s %d: %w", rel.ViaResource, ownerID, err)
		}
	}
	return nil
}

// Reconcile makes the edges of owner equal to desired: ids missing
// remotely are attached, ids no longer desired are detached. Nothing is
// rolled back when a step fails, running it again completes the change.
func (c *Client) Reconcile(ctx context.Context, rel Relation, ownerID int, desired []int) (Diff, error) {
	if err := c.RequireWrite("reconcile " + rel.name()); err != nil {
		return Diff{}, err
	}

	current, err := c.CurrentEdges(ctx, rel, ownerID)
	if err != nil {
		return Diff{}, err
	}
	diff := Difference(current, desired)

	slog.DebugContext(
		ctx, "reconciling relation",
		"relation", rel.name(),
		"owner", ownerID,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
	)

	if len(diff.Added) > 0 {
		err = c.Attach(ctx, rel, ownerID, diff.Added)
		if err != nil {
			return diff, err
		}
	}
	if len(diff.Removed) > 0 {
		err = c.Detach(ctx, rel, ownerID, diff.Removed)
		if err != nil {
			return diff, err
		}
	}
	return diff, nil
}

// Difference computes desired minus current (Added) and current minus
// desired (Removed), keeping the input order.
func Difference(current, desired []int) Diff {
	inCurrent := make(map[int]bool, len(current))
	for _, id := range current {
		inCurrent[id] = true
	}
	inDesired := make(map[int]bool, len(desired))
	for _, id := range desired {
		inDesired[id] = true
	}

	var diff Diff
	for _, id := range desired {
		if !inCurrent[id] {
			diff.Added = append(diff.Added, id)
			inCurrent[id] = true
		}
	}
	for _, id := range current {
		if !inDesired[id] {
			diff.Removed = append(diff.Removed, id)
			inDesired[id] = true
		}
	}
	return diff
}
