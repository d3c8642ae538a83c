package dom

type MutationKind string

const (
	MutationChildList  MutationKind = "childList"
	MutationAttributes MutationKind = "attributes"
)

// MutationRecord describes one change to the document. For child-list
// records Target is the parent whose children changed; for attribute
// records it is the element whose attribute changed.
type MutationRecord struct {
	Kind          MutationKind
	Target        *Element
	AddedNodes    []*Element
	RemovedNodes  []*Element
	AttributeName string
	OldValue      string

	// Detached lists every known element of the removed subtrees, roots
	// included, in document order. These wrappers are no longer tracked.
	Detached []*Element
}

// Observe registers fn for every mutation of the document. Records are
// delivered synchronously, after the change is applied, in the order the
// changes happened. The returned function unregisters fn.
func (d *Document) Observe(fn func(MutationRecord)) (cancel func()) {
	d.mu.Lock()
	d.nextObs++
	id := d.nextObs
	d.observers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

func (d *Document) notify(rec MutationRecord) {
	d.mu.Lock()
	fns := make([]func(MutationRecord), 0, len(d.observers))
	for i := 1; i <= d.nextObs; i++ {
		if fn, ok := d.observers[i]; ok {
			fns = append(fns, fn)
		}
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(rec)
	}
}
