// Package bus implements the synchronous publish/subscribe channel that
// connects the narrative core to its presentation layers.
//
// Messages form a closed set of variants, each identified by its Kind.
// Delivery is synchronous, newest subscriber first, over a snapshot of the
// handler list so handlers may subscribe, unsubscribe or publish re-entrantly.
// A Bus must only be used from the single logic goroutine.
package bus

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Kind identifies a message variant.
type Kind string

// Message is implemented by every variant in messages.go.
type Message interface {
	Kind() Kind
}

// Handler receives published messages.
type Handler interface {
	Handle(Message)
}

// HandlerFunc adapts a function to Handler. Function handlers are never
// considered duplicates of each other; cancel them with their Subscription.
type HandlerFunc func(Message)

// Handle calls f(m).
func (f HandlerFunc) Handle(m Message) { f(m) }

// Subscription identifies one registration.
type Subscription struct {
	kind Kind
	id   uint64
}

// Kind returns the message kind the subscription listens to.
func (s Subscription) Kind() Kind { return s.kind }

type entry struct {
	id      uint64
	handler Handler
}

// Bus is a per-kind handler registry.
type Bus struct {
	handlers map[Kind][]entry
	nextID   uint64
	log      *zap.Logger
}

// New creates an empty bus. A nil logger discards output.
func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		handlers: map[Kind][]entry{},
		log:      log.Named("bus"),
	}
}

// Subscribe registers h for messages of kind. Subscribing a handler that is
// already registered for kind is a no-op returning the existing subscription.
func (b *Bus) Subscribe(kind Kind, h Handler) Subscription {
	if h == nil {
		b.log.Error("nil handler subscription ignored", zap.String("kind", string(kind)))
		return Subscription{}
	}
	for _, e := range b.handlers[kind] {
		if sameHandler(e.handler, h) {
			return Subscription{kind: kind, id: e.id}
		}
	}
	b.nextID++
	b.handlers[kind] = append(b.handlers[kind], entry{id: b.nextID, handler: h})
	return Subscription{kind: kind, id: b.nextID}
}

// Unsubscribe removes h from kind. Unknown handlers are ignored.
func (b *Bus) Unsubscribe(kind Kind, h Handler) {
	if h == nil {
		return
	}
	list := b.handlers[kind]
	for i, e := range list {
		if sameHandler(e.handler, h) {
			b.handlers[kind] = remove(list, i)
			return
		}
	}
}

// Cancel removes the registration identified by sub.
func (b *Bus) Cancel(sub Subscription) {
	list := b.handlers[sub.kind]
	for i, e := range list {
		if e.id == sub.id {
			b.handlers[sub.kind] = remove(list, i)
			return
		}
	}
}

// Publish delivers m to every handler registered for its kind. A panicking
// handler is logged and skipped; delivery continues with the rest.
func (b *Bus) Publish(m Message) {
	if m == nil {
		return
	}
	list := b.handlers[m.Kind()]
	if len(list) == 0 {
		return
	}
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	for i := len(snapshot) - 1; i >= 0; i-- {
		b.deliver(snapshot[i].handler, m)
	}
}

// Clear drops every handler for kind.
func (b *Bus) Clear(kind Kind) {
	delete(b.handlers, kind)
}

// Count returns the number of handlers registered for kind.
func (b *Bus) Count(kind Kind) int {
	return len(b.handlers[kind])
}

func (b *Bus) deliver(h Handler, m Message) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("handler failed",
				zap.String("kind", string(m.Kind())),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	h.Handle(m)
}

// On subscribes a typed function to the kind of T.
func On[T Message](b *Bus, fn func(T)) Subscription {
	var zero T
	return b.Subscribe(zero.Kind(), HandlerFunc(func(m Message) {
		if v, ok := m.(T); ok {
			fn(v)
		}
	}))
}

// sameHandler reports whether a and b are the same registration target.
// Handlers of non-comparable dynamic types (funcs) never match.
func sameHandler(a, b Handler) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func remove(list []entry, i int) []entry {
	out := make([]entry, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
