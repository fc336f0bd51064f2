package session

import (
	"sync"
	"testing"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

func TestGetUnknownIsIdleAndNotStored(t *testing.T) {
	s := NewStore(0, nil)
	if got := s.Get("u1"); got.State != Idle || got.Data.Origin != nil {
		t.Fatalf("expected empty idle session, got %+v", got)
	}
	if s.Active() != 0 {
		t.Fatalf("lookup must not create a session")
	}
}

func TestSetAndClear(t *testing.T) {
	s := NewStore(0, nil)
	origin := &models.Place{Address: "Rua A"}
	s.Set("u1", WaitingDestination, Data{Origin: origin})
	got := s.Get("u1")
	if got.State != WaitingDestination || got.Data.Origin.Address != "Rua A" {
		t.Fatalf("unexpected session %+v", got)
	}
	s.Clear("u1")
	if s.Get("u1").State != Idle {
		t.Fatal("expected idle after clear")
	}
}

func TestIdleExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewStore(30*time.Minute, clock)
	s.Set("u1", WaitingOrigin, Data{})
	s.Set("u2", WaitingOrigin, Data{})

	now = now.Add(20 * time.Minute)
	s.Set("u2", WaitingDestination, Data{})

	now = now.Add(15 * time.Minute)
	if s.Get("u1").State != Idle {
		t.Fatal("u1 should read as idle after ttl")
	}
	if s.Get("u2").State != WaitingDestination {
		t.Fatal("u2 was touched recently and must survive")
	}
	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept session, got %d", removed)
	}
	if s.Active() != 1 {
		t.Fatalf("expected 1 active session, got %d", s.Active())
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50, got %d", counter)
	}
	if len(k.locks) != 0 {
		t.Fatalf("expected lock table to drain, got %d", len(k.locks))
	}
}
