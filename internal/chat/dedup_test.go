package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"ovidio_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T) *Deduper {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewDeduper(rdb, logger.New("test"))
}

func TestFirstSightClaimsOnce(t *testing.T) {
	d := newTestDeduper(t)
	ctx := context.Background()

	if !d.FirstSight(ctx, "wamid.A1") {
		t.Fatal("first delivery rejected")
	}
	if d.FirstSight(ctx, "wamid.A1") {
		t.Fatal("redelivery accepted")
	}
	if !d.FirstSight(ctx, "wamid.A2") {
		t.Fatal("unrelated message rejected")
	}
}

func TestFirstSightConcurrent(t *testing.T) {
	d := newTestDeduper(t)

	var wg sync.WaitGroup
	var claims atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.FirstSight(context.Background(), "wamid.RACE") {
				claims.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := claims.Load(); got != 1 {
		t.Fatalf("claims = %d, want exactly 1", got)
	}
}

func TestChannelLocksSerialize(t *testing.T) {
	locks := newChannelLocks()

	var order []int
	unlock := locks.acquire("549341")

	done := make(chan struct{})
	go func() {
		u := locks.acquire("549341")
		order = append(order, 2)
		u()
		close(done)
	}()

	order = append(order, 1)
	unlock()
	<-done

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}
