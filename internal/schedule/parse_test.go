package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, 5, 20, 15, 0, 0, 0, loc)

	cases := []struct {
		name    string
		in      string
		want    time.Time
		wantErr error
	}{
		{"tomorrow default hour", "tomorrow", time.Date(2025, 5, 21, 9, 0, 0, 0, loc), nil},
		{"amanha with time", "Amanhã às 14:30", time.Date(2025, 5, 21, 14, 30, 0, 0, loc), nil},
		{"amanha without accent", "amanha 7:05", time.Date(2025, 5, 21, 7, 5, 0, 0, loc), nil},
		{"today future", "today 18:30", time.Date(2025, 5, 20, 18, 30, 0, 0, loc), nil},
		{"today past", "today 10:00", time.Time{}, ErrNotFuture},
		{"hoje now is not future", "hoje 15:00", time.Time{}, ErrNotFuture},
		{"today without time", "hoje", time.Time{}, ErrUnrecognized},
		{"bare time later today", "16:45", time.Date(2025, 5, 20, 16, 45, 0, 0, loc), nil},
		{"bare time past rolls over", "14:00", time.Date(2025, 5, 21, 14, 0, 0, 0, loc), nil},
		{"bare time equal rolls over", "15:00", time.Date(2025, 5, 21, 15, 0, 0, 0, loc), nil},
		{"garbage", "next week maybe", time.Time{}, ErrUnrecognized},
		{"invalid clock", "today 25:10", time.Time{}, ErrInvalidClock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in, now)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v (%s)", tc.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s got %s", tc.want, got)
			}
		})
	}
}

func TestParseTomorrowCrossesMonth(t *testing.T) {
	now := time.Date(2025, 1, 31, 23, 50, 0, 0, time.UTC)
	got, err := Parse("tomorrow", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %s got %s", want, got)
	}
}
