package signal

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan Kind) Kind {
	t.Helper()
	select {
	case k := <-ch:
		return k
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
		return ""
	}
}

func TestPublishReachesSubscribersOfKind(t *testing.T) {
	bus := New()
	defer bus.Close()

	cart := make(chan Kind, 4)
	wishlist := make(chan Kind, 4)
	bus.Subscribe(Cart, func(k Kind) { cart <- k })
	bus.Subscribe(Wishlist, func(k Kind) { wishlist <- k })

	bus.Publish(Cart)

	assert.Equal(t, Cart, waitFor(t, cart))
	select {
	case <-wishlist:
		t.Fatal("wishlist subscriber received a cart signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusySubscriberCoalesces(t *testing.T) {
	bus := New()
	defer bus.Close()

	started := make(chan Kind, 1)
	release := make(chan struct{})
	var calls int32

	bus.Subscribe(Cart, func(k Kind) {
		if atomic.AddInt32(&calls, 1) == 1 {
			started <- k
			<-release
		}
	})

	bus.Publish(Cart)
	waitFor(t, started)

	for i := 0; i < 5; i++ {
		bus.Publish(Cart)
	}
	close(release)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := New()
	defer bus.Close()

	block := make(chan struct{})
	defer close(block)
	bus.Subscribe(Cart, func(Kind) { <-block })

	fast := make(chan Kind, 4)
	bus.Subscribe(Cart, func(k Kind) { fast <- k })

	bus.Publish(Cart)
	bus.Publish(Cart)
	waitFor(t, fast)
}

func TestUnsubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	got := make(chan Kind, 4)
	unsubscribe := bus.Subscribe(Session, func(k Kind) { got <- k })

	bus.Publish(Session)
	waitFor(t, got)

	unsubscribe()
	unsubscribe()
	bus.Publish(Session)

	select {
	case <-got:
		t.Fatal("signal delivered after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseStopsEverything(t *testing.T) {
	bus := New()

	var calls int32
	bus.Subscribe(Cart, func(Kind) { atomic.AddInt32(&calls, 1) })
	bus.Close()
	bus.Close()

	bus.Publish(Cart)
	unsubscribe := bus.Subscribe(Cart, func(Kind) { atomic.AddInt32(&calls, 1) })
	unsubscribe()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
