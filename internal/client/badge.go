package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/service"
	"storefront/internal/signal"
)

// CountFunc derives a badge count from a fresh fetch
type CountFunc func(ctx context.Context) (int, error)

const badgeFetchTimeout = 10 * time.Second

// Badge is a count display kept current by re-fetching whenever its kind
// (or the session) is signalled. The signal carries nothing; the badge
// always asks the server. Fetches for one badge run one at a time, so the
// count settles on the result of the latest fetch.
type Badge struct {
	kind    signal.Kind
	fetch   CountFunc
	fetchMu sync.Mutex

	mu       sync.RWMutex
	count    int
	err      error
	onChange func(count int)

	unsubscribe []func()
}

// NewBadge subscribes a badge for kind on bus and starts a first fetch,
// so the count is current before any signal arrives
func NewBadge(bus *signal.Bus, kind signal.Kind, fetch CountFunc) *Badge {
	b := &Badge{kind: kind, fetch: fetch}
	refresh := func(signal.Kind) {
		ctx, cancel := context.WithTimeout(context.Background(), badgeFetchTimeout)
		defer cancel()
		_ = b.Refresh(ctx)
	}
	b.unsubscribe = []func(){
		bus.Subscribe(kind, refresh),
		bus.Subscribe(signal.Session, refresh),
	}
	go refresh(kind)
	return b
}

// CartBadge counts cart lines
func CartBadge(bus *signal.Bus, sf *Storefront) *Badge {
	return NewBadge(bus, signal.Cart, func(ctx context.Context) (int, error) {
		view, err := sf.Cart(ctx)
		if err != nil {
			return 0, err
		}
		return view.Count, nil
	})
}

// WishlistBadge counts saved products
func WishlistBadge(bus *signal.Bus, sf *Storefront) *Badge {
	return NewBadge(bus, signal.Wishlist, func(ctx context.Context) (int, error) {
		view, err := sf.Wishlist(ctx)
		if err != nil {
			return 0, err
		}
		return view.Count, nil
	})
}

// Refresh re-fetches the count now. A signed-out caller shows zero.
func (b *Badge) Refresh(ctx context.Context) error {
	b.fetchMu.Lock()
	defer b.fetchMu.Unlock()

	count, err := b.fetch(ctx)
	if errors.Is(err, service.ErrUnauthenticated) {
		count, err = 0, nil
	}

	b.mu.Lock()
	b.err = err
	changed := err == nil && count != b.count
	if err == nil {
		b.count = count
	}
	onChange := b.onChange
	b.mu.Unlock()

	if changed && onChange != nil {
		onChange(count)
	}
	return err
}

// Count is the last successfully fetched count
func (b *Badge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Err is the error from the last fetch, if it failed
func (b *Badge) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// OnChange registers fn to run when the count changes
func (b *Badge) OnChange(fn func(count int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Close stops listening for signals
func (b *Badge) Close() {
	for _, unsubscribe := range b.unsubscribe {
		unsubscribe()
	}
}
