// Package signal is an in-process publish/subscribe bus for payload-less
// change signals. A signal only says "this kind of state changed"; each
// subscriber re-derives its own view.
package signal

import "sync"

// Kind scopes a signal to one family of state
type Kind string

const (
	Cart     Kind = "cart"
	Wishlist Kind = "wishlist"
	Session  Kind = "session"
)

// Handler reacts to a signal of the kind it subscribed to
type Handler func(kind Kind)

type subscriber struct {
	kind    Kind
	handler Handler
	pending chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.pending:
			select {
			case <-s.done:
				return
			default:
			}
			s.handler(s.kind)
		}
	}
}

// Bus fans signals out to subscribers. Each subscriber runs its handler on
// its own goroutine, one signal at a time, in publish order. While a handler
// is busy, further signals for it collapse into a single pending one, so a
// slow subscriber never blocks Publish.
type Bus struct {
	mu     sync.Mutex
	subs   map[Kind]map[*subscriber]struct{}
	closed bool
	wg     sync.WaitGroup
}

// New creates an empty bus
func New() *Bus {
	return &Bus{subs: make(map[Kind]map[*subscriber]struct{})}
}

// Subscribe registers handler for kind and returns a func that removes it.
// Calling the returned func more than once is harmless.
func (b *Bus) Subscribe(kind Kind, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	s := &subscriber{
		kind:    kind,
		handler: handler,
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[*subscriber]struct{})
	}
	b.subs[kind][s] = struct{}{}

	b.wg.Add(1)
	go s.run(&b.wg)

	return func() {
		b.mu.Lock()
		delete(b.subs[kind], s)
		b.mu.Unlock()
		s.stop()
	}
}

// Publish signals every subscriber of kind. It never blocks.
func (b *Bus) Publish(kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for s := range b.subs[kind] {
		select {
		case s.pending <- struct{}{}:
		default:
		}
	}
}

// Close stops every subscriber and waits for running handlers to return.
// It must not be called from inside a handler.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, subs := range b.subs {
		for s := range subs {
			s.stop()
		}
	}
	b.subs = nil
	b.mu.Unlock()

	b.wg.Wait()
}
