package rate

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiter(t *testing.T) {
	interval := 10 * time.Millisecond
	clk := &clock{t: time.Unix(1700000000, 0)}
	r := NewLimiter(1, time.Minute, Every(interval))
	r.now = clk.now

	client := "10.0.0.1"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{time.Millisecond, interval, interval, time.Millisecond, time.Millisecond, time.Millisecond}
	for i, exp := range expected {
		if got := r.Allow(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		clk.advance(waits[i])
	}
}

func TestLimiterWithBurst(t *testing.T) {
	interval := 100 * time.Millisecond
	clk := &clock{t: time.Unix(1700000000, 0)}
	r := NewLimiter(10, time.Minute, Every(interval))
	r.now = clk.now

	client := "10.0.0.1"
	for i := 0; i < 10; i++ {
		if !r.Allow(client) {
			t.Fatalf("burst request %d rejected", i)
		}
	}
	if r.Allow(client) {
		t.Fatal("request past the burst allowed")
	}

	clk.advance(interval)
	if !r.Allow(client) {
		t.Fatal("request after refill rejected")
	}
	if r.Allow("10.0.0.1") {
		t.Fatal("second request after a single refill allowed")
	}
	if !r.Allow("10.0.0.2") {
		t.Fatal("other clients must have their own bucket")
	}
}

func TestLimiterEvictsIdleClients(t *testing.T) {
	clk := &clock{t: time.Unix(1700000000, 0)}
	r := NewLimiter(1, time.Minute, Every(time.Second))
	r.now = clk.now

	r.Allow("a")
	clk.advance(30 * time.Second)
	r.Allow("b")
	clk.advance(45 * time.Second)
	r.evict()

	if got := r.size(); got != 1 {
		t.Fatalf("expected 1 client after eviction, got %d", got)
	}
}
