package badge

import "sort"

// Listeners is a PointerSource fed by a front end's raw event loop. Handlers
// may unsubscribe while an event is being dispatched.
type Listeners struct {
	nextID int
	subs   map[int]listener
}

type listener struct {
	onMove    func(Point)
	onRelease func()
}

// Subscribe registers move and release handlers.
func (l *Listeners) Subscribe(onMove func(Point), onRelease func()) func() {
	if l.subs == nil {
		l.subs = make(map[int]listener)
	}
	id := l.nextID
	l.nextID++
	l.subs[id] = listener{onMove: onMove, onRelease: onRelease}
	return func() {
		delete(l.subs, id)
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	return len(l.subs)
}

// Move dispatches a pointer move to every listener.
func (l *Listeners) Move(p Point) {
	for _, sub := range l.snapshot() {
		if sub.onMove != nil {
			sub.onMove(p)
		}
	}
}

// Release dispatches a pointer release to every listener.
func (l *Listeners) Release() {
	for _, sub := range l.snapshot() {
		if sub.onRelease != nil {
			sub.onRelease()
		}
	}
}

func (l *Listeners) snapshot() []listener {
	ids := make([]int, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.subs[id])
	}
	return out
}

var _ PointerSource = (*Listeners)(nil)
