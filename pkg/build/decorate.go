package build

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/prereqgraph/pkg/catalog"
	"github.com/matzehuels/prereqgraph/pkg/dag"
)

// decorateWorkers bounds concurrent catalog lookups.
const decorateWorkers = 8

// Decorate returns a copy of g whose course nodes carry catalog metadata.
// The input graph is not modified.
//
// Lookups run concurrently. Courses the catalog does not know are left as
// they are; any other lookup failure cancels the remaining lookups and is
// returned. Labels and titles already present on a node win over the catalog.
func Decorate(ctx context.Context, g *dag.DAG, cat catalog.Catalog) (*dag.DAG, error) {
	out := g.Clone()
	if cat == nil {
		return out, nil
	}

	var (
		mu    sync.Mutex
		found = make(map[string]*catalog.Course)
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(decorateWorkers)

	for _, n := range out.Nodes() {
		if !n.IsCourse() {
			continue
		}
		id, courseID := n.ID, n.CourseID
		eg.Go(func() error {
			c, err := cat.Course(ctx, courseID)
			if errors.Is(err, catalog.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			found[id] = c
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for id, c := range found {
		n, _ := out.Node(id)
		apply(n, c)
	}
	return out, nil
}

func apply(n *dag.Node, c *catalog.Course) {
	meta := c.Meta()
	if n.Course != nil {
		// fields the record already had take precedence
		if n.Course.Code != "" {
			meta.Code = n.Course.Code
		}
		if n.Course.Credits != nil {
			meta.Credits = n.Course.Credits
		}
		if n.Course.Level != "" {
			meta.Level = n.Course.Level
		}
		if n.Course.Unit != "" {
			meta.Unit = n.Course.Unit
		}
		if n.Course.LastOffered != "" {
			meta.LastOffered = n.Course.LastOffered
		}
		if n.Course.Description != "" {
			meta.Description = n.Course.Description
		}
	}
	n.Course = meta
	if c.Code != "" && (n.Label == "" || n.Label == n.ID) {
		n.Label = c.Code
	}
	if n.Title == "" {
		n.Title = c.Title
	}
}

// CatalogResolver adapts a catalog into a CodeResolver bound to ctx.
func CatalogResolver(ctx context.Context, cat catalog.Catalog) CodeResolver {
	return func(code string) (int, bool) {
		c, err := cat.CourseByCode(ctx, code)
		if err != nil {
			return 0, false
		}
		return c.ID, true
	}
}
