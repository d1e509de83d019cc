// Package spatial wraps an R-tree with the operations the marker layer needs:
// single insert, bulk load, identity-based removal and inclusive range search.
package spatial

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"markermap/internal/geom"
)

// Default R-tree branching factors.
const (
	DefaultMinChildren = 25
	DefaultMaxChildren = 50
)

// Entry is one rectangle in an index plus a back-reference to its owner.
type Entry[T any] struct {
	Box  geom.BBox
	Data T
}

// Bounds implements rtreego.Spatial. Degenerate (point) boxes are allowed.
func (e *Entry[T]) Bounds() rtreego.Rect {
	r, _ := rtreego.NewRectFromPoints(
		rtreego.Point{e.Box.MinX, e.Box.MinY},
		rtreego.Point{e.Box.MaxX, e.Box.MaxY},
	)
	return r
}

// Stats counts calls per operation, mostly for tests and metrics.
type Stats struct {
	Inserts  int
	Loads    int
	Removes  int
	Searches int
}

// Index is a 2D R-tree of entries.
type Index[T any] struct {
	minChildren int
	maxChildren int
	tree        *rtreego.Rtree
	stats       Stats
}

// New creates an empty index. Non-positive branching factors fall back to
// the defaults.
func New[T any](minChildren, maxChildren int) *Index[T] {
	if minChildren <= 0 || maxChildren <= 0 || minChildren > maxChildren {
		minChildren, maxChildren = DefaultMinChildren, DefaultMaxChildren
	}
	ix := &Index[T]{minChildren: minChildren, maxChildren: maxChildren}
	ix.tree = rtreego.NewTree(2, minChildren, maxChildren)
	return ix
}

// Insert adds one entry.
func (ix *Index[T]) Insert(e *Entry[T]) {
	ix.stats.Inserts++
	ix.tree.Insert(e)
}

// Load adds many entries at once. The tree is rebuilt with top-down bulk
// loading over the existing and the new entries, which packs nodes far
// better than repeated Insert.
func (ix *Index[T]) Load(entries []*Entry[T]) {
	ix.stats.Loads++
	if len(entries) == 0 {
		return
	}
	objs := make([]rtreego.Spatial, 0, ix.tree.Size()+len(entries))
	if ix.tree.Size() > 0 {
		objs = append(objs, ix.tree.SearchIntersect(everything())...)
	}
	for _, e := range entries {
		objs = append(objs, e)
	}
	ix.tree = rtreego.NewTree(2, ix.minChildren, ix.maxChildren, objs...)
}

// Remove deletes the first stored entry for which equal(stored, e) holds.
// The stored entry must lie within e's box for the tree to find it.
// It reports whether anything was removed.
func (ix *Index[T]) Remove(e *Entry[T], equal func(a, b *Entry[T]) bool) bool {
	ix.stats.Removes++
	return ix.tree.DeleteWithComparator(e, func(a, b rtreego.Spatial) bool {
		ea, ok1 := a.(*Entry[T])
		eb, ok2 := b.(*Entry[T])
		return ok1 && ok2 && equal(ea, eb)
	})
}

// Search returns the entries intersecting box, touching edges included.
// Result order follows tree traversal and is not stable across rebuilds.
func (ix *Index[T]) Search(box geom.BBox) []*Entry[T] {
	ix.stats.Searches++
	// rtreego treats touching rectangles as disjoint: widen the query by one
	// ulp on every side, then filter on the exact inclusive test.
	q, err := rtreego.NewRectFromPoints(
		rtreego.Point{math.Nextafter(box.MinX, math.Inf(-1)), math.Nextafter(box.MinY, math.Inf(-1))},
		rtreego.Point{math.Nextafter(box.MaxX, math.Inf(1)), math.Nextafter(box.MaxY, math.Inf(1))},
	)
	if err != nil {
		return nil
	}
	found := ix.tree.SearchIntersect(q, func(_ []rtreego.Spatial, obj rtreego.Spatial) (bool, bool) {
		e, ok := obj.(*Entry[T])
		return !ok || !e.Box.Intersects(box), false
	})
	return entries[T](found)
}

// All returns every stored entry.
func (ix *Index[T]) All() []*Entry[T] {
	return entries[T](ix.tree.SearchIntersect(everything()))
}

// Clear drops every entry.
func (ix *Index[T]) Clear() {
	ix.tree = rtreego.NewTree(2, ix.minChildren, ix.maxChildren)
}

// Len returns the number of stored entries.
func (ix *Index[T]) Len() int { return ix.tree.Size() }

// Stats returns the call counters.
func (ix *Index[T]) Stats() Stats { return ix.stats }

func everything() rtreego.Rect {
	r, _ := rtreego.NewRectFromPoints(
		rtreego.Point{math.Inf(-1), math.Inf(-1)},
		rtreego.Point{math.Inf(1), math.Inf(1)},
	)
	return r
}

func entries[T any](objs []rtreego.Spatial) []*Entry[T] {
	out := make([]*Entry[T], 0, len(objs))
	for _, o := range objs {
		if e, ok := o.(*Entry[T]); ok {
			out = append(out, e)
		}
	}
	return out
}
