package interaction

import "fmt"

// EventKind identifies a gesture event on the bus.
type EventKind int

const (
	HandleStart EventKind = iota
	HandleMove
	HandleEnd
	RegionStart
	RegionMove
	RegionEnd
)

func (k EventKind) String() string {
	switch k {
	case HandleStart:
		return "handlestart"
	case HandleMove:
		return "handlemove"
	case HandleEnd:
		return "handleend"
	case RegionStart:
		return "regionstart"
	case RegionMove:
		return "regionmove"
	case RegionEnd:
		return "regionend"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event carries the pointer position in client coordinates.
type Event struct {
	Kind   EventKind
	Handle int
	X, Y   float64
}

type subscriber struct {
	id int
	fn func(Event)
}

// Bus is a synchronous publish/subscribe dispatcher. Subscribers run in
// subscription order.
type Bus struct {
	subs   map[EventKind][]subscriber
	nextID int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventKind][]subscriber)}
}

// Subscribe registers fn for kind and returns a function removing it.
func (b *Bus) Subscribe(kind EventKind, fn func(Event)) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscriber{id: id, fn: fn})
	return func() {
		list := b.subs[kind]
		for i, s := range list {
			if s.id == id {
				b.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every subscriber of its kind.
func (b *Bus) Publish(ev Event) {
	for _, s := range b.subs[ev.Kind] {
		s.fn(ev)
	}
}
