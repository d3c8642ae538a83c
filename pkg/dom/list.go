package dom

// ElementList is the common shape of element collections: live query
// results, static snapshots and plain slices.
type ElementList interface {
	Len() int
	At(i int) *Element
}

// Elements is a plain ordered sequence.
type Elements []*Element

func (e Elements) Len() int          { return len(e) }
func (e Elements) At(i int) *Element { return e[i] }

// NodeList is an immutable snapshot produced by a query.
type NodeList struct {
	items []*Element
}

func NewNodeList(items ...*Element) NodeList {
	cp := make([]*Element, len(items))
	copy(cp, items)
	return NodeList{items: cp}
}

func (l NodeList) Len() int          { return len(l.items) }
func (l NodeList) At(i int) *Element { return l.items[i] }

// LiveList re-evaluates its selector on every access, like a live
// HTMLCollection. An invalid selector yields an empty collection.
type LiveList struct {
	doc      *Document
	scope    *Element
	selector string
}

// Live returns a live collection of e's descendants matching sel.
func (e *Element) Live(sel string) *LiveList {
	return &LiveList{doc: e.doc, scope: e, selector: sel}
}

func (l *LiveList) current() NodeList {
	var (
		list NodeList
		err  error
	)
	if l.scope != nil {
		list, err = l.scope.QuerySelectorAll(l.selector)
	} else {
		list, err = l.doc.QuerySelectorAll(l.selector)
	}
	if err != nil {
		return NodeList{}
	}
	return list
}

func (l *LiveList) Len() int { return l.current().Len() }

func (l *LiveList) At(i int) *Element {
	cur := l.current()
	if i < 0 || i >= cur.Len() {
		return nil
	}
	return cur.At(i)
}

// Collect normalizes any ElementList into an ordered slice, evaluating a
// live list exactly once and skipping nil entries.
func Collect(list ElementList) []*Element {
	if list == nil {
		return nil
	}
	if live, ok := list.(*LiveList); ok {
		list = live.current()
	}
	out := make([]*Element, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		if el := list.At(i); el != nil {
			out = append(out, el)
		}
	}
	return out
}
