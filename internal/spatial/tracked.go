package spatial

// DefaultCompactRatio is the dirty/total ratio at which a Tracked index is
// rebuilt.
const DefaultCompactRatio = 0.1

// Tracked is an Index that counts logical entries and removals so that the
// owner can rebuild it once incremental deletes have degraded the tree.
type Tracked[T any] struct {
	*Index[T]
	total int
	dirty int
	ratio float64
}

// NewTracked creates an empty tracked index. A non-positive ratio falls back
// to DefaultCompactRatio.
func NewTracked[T any](minChildren, maxChildren int, ratio float64) *Tracked[T] {
	if ratio <= 0 {
		ratio = DefaultCompactRatio
	}
	return &Tracked[T]{Index: New[T](minChildren, maxChildren), ratio: ratio}
}

// Insert adds one entry and counts it.
func (t *Tracked[T]) Insert(e *Entry[T]) {
	t.Index.Insert(e)
	t.total++
}

// Load bulk-loads entries and counts them.
func (t *Tracked[T]) Load(entries []*Entry[T]) {
	t.Index.Load(entries)
	t.total += len(entries)
}

// Remove deletes an entry. Only a successful removal touches the counters.
func (t *Tracked[T]) Remove(e *Entry[T], equal func(a, b *Entry[T]) bool) bool {
	if !t.Index.Remove(e, equal) {
		return false
	}
	t.total--
	t.dirty++
	return true
}

// Clear drops every entry and resets the counters.
func (t *Tracked[T]) Clear() {
	t.Index.Clear()
	t.total = 0
	t.dirty = 0
}

// Total is the number of entries logically present.
func (t *Tracked[T]) Total() int { return t.total }

// Dirty is the number of removals since the last compaction.
func (t *Tracked[T]) Dirty() int { return t.dirty }

// Ratio is the fragmentation at which NeedsCompaction turns true.
func (t *Tracked[T]) Ratio() float64 { return t.ratio }

// Fragmentation returns dirty/total. An empty index with pending removals
// counts as fully fragmented.
func (t *Tracked[T]) Fragmentation() float64 {
	if t.total == 0 {
		if t.dirty > 0 {
			return 1
		}
		return 0
	}
	return float64(t.dirty) / float64(t.total)
}

// NeedsCompaction reports whether Fragmentation reached the configured ratio.
func (t *Tracked[T]) NeedsCompaction() bool {
	return t.dirty > 0 && t.Fragmentation() >= t.ratio
}

// Compact drains the tree and bulk-reloads the surviving entries.
// total is unchanged, dirty goes back to zero.
func (t *Tracked[T]) Compact() {
	all := t.Index.All()
	t.Index.Clear()
	t.Index.Load(all)
	t.dirty = 0
}
