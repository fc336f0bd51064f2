package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/ride-booking-bot/internal/logging"
	"github.com/example/ride-booking-bot/internal/models"
)

// fakeUpdater implements RedisUpdater for tests
type fakeUpdater struct {
	failGeo  int // number of times to fail GeoAdd before succeeding
	failH    int // number of times to fail HSet before succeeding
	geoCalls int
	hCalls   int
	hashKeys []string
	geoNames []string
}

func (f *fakeUpdater) GeoAdd(ctx context.Context, key string, loc *redis.GeoLocation) error {
	f.geoCalls++
	if f.geoCalls <= f.failGeo {
		return errors.New("geo fail")
	}
	f.geoNames = append(f.geoNames, loc.Name)
	return nil
}

func (f *fakeUpdater) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.hCalls++
	if f.hCalls <= f.failH {
		return errors.New("hset fail")
	}
	f.hashKeys = append(f.hashKeys, key)
	return nil
}

var sampleLoc = models.OperatorLocation{OperatorID: "op1", Loc: models.Coord{Lat: -23.5, Lon: -46.6}, Source: "push"}

func TestUpdateRedisWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{failGeo: 1, failH: 1}
	start := time.Now()
	if err := updateRedisWithRetry(context.Background(), f, "operators_geo", sampleLoc, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.geoCalls < 2 || f.hCalls < 2 {
		t.Fatalf("expected retries, got geo=%d h=%d", f.geoCalls, f.hCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if len(f.hashKeys) != 1 || f.hashKeys[0] != "operator:meta:op1" {
		t.Fatalf("unexpected hash keys %v", f.hashKeys)
	}
}

func TestUpdateRedisWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{failGeo: 5}
	if err := updateRedisWithRetry(context.Background(), f, "operators_geo", sampleLoc, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
	if f.geoCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.geoCalls)
	}
}

func TestDecodeLocation(t *testing.T) {
	cases := []struct {
		body string
		ok   bool
	}{
		{`{"operator_id":"op1","loc":{"lat":-23.5,"lon":-46.6}}`, true},
		{`{"loc":{"lat":-23.5,"lon":-46.6}}`, false},
		{`{"operator_id":"op1","loc":{"lat":123,"lon":0}}`, false},
		{`garbage`, false},
	}
	for _, tc := range cases {
		_, err := decodeLocation([]byte(tc.body))
		if (err == nil) != tc.ok {
			t.Errorf("%s: ok=%v err=%v", tc.body, tc.ok, err)
		}
	}
}

type scriptedReader struct {
	msgs   [][]byte
	cancel context.CancelFunc
}

func (s *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(s.msgs) == 0 {
		s.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return kafka.Message{Value: m}, nil
}

func TestConsumeSkipsInvalidMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &scriptedReader{cancel: cancel, msgs: [][]byte{
		[]byte(`nope`),
		[]byte(`{"operator_id":"op1","loc":{"lat":-23.5,"lon":-46.6}}`),
		[]byte(`{"operator_id":"op2","loc":{"lat":-22.9,"lon":-43.2}}`),
	}}
	f := &fakeUpdater{}
	consume(ctx, r, f, "operators_geo", logging.Discard())
	if len(f.geoNames) != 2 || f.geoNames[0] != "op1" || f.geoNames[1] != "op2" {
		t.Fatalf("unexpected updates %v", f.geoNames)
	}
}
