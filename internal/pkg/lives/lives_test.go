package lives

import (
	"testing"
	"time"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func anchorAt(t time.Time) *time.Time { return &t }

func TestRegenerate_NoGainBeforeWindow(t *testing.T) {
	t.Parallel()

	for _, elapsed := range []time.Duration{0, time.Second, 900 * time.Second, 1799 * time.Second} {
		last := base.Add(-elapsed)
		count, anchor := Regenerate(base, &last, 1, false)
		if count != 1 {
			t.Fatalf("elapsed %v: expected unchanged count 1, got %d", elapsed, count)
		}
		if anchor == nil || !anchor.Equal(last) {
			t.Fatalf("elapsed %v: expected anchor unchanged", elapsed)
		}
	}
}

func TestRegenerate_GainPerFullWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		elapsed time.Duration
		start   int
		want    int
	}{
		{elapsed: 1800 * time.Second, start: 0, want: 1},
		{elapsed: 3600 * time.Second, start: 0, want: 2},
		{elapsed: 5400 * time.Second, start: 0, want: 3},
		{elapsed: 3 * time.Hour, start: 0, want: 3}, // capped
		{elapsed: 1800 * time.Second, start: 2, want: 3},
		{elapsed: 2700 * time.Second, start: 1, want: 2}, // partial second window ignored
	}

	for _, tt := range tests {
		last := base.Add(-tt.elapsed)
		count, anchor := Regenerate(base, &last, tt.start, false)
		if count != tt.want {
			t.Fatalf("elapsed %v start %d: got %d, want %d", tt.elapsed, tt.start, count, tt.want)
		}
		if anchor == nil || !anchor.Equal(base) {
			t.Fatalf("elapsed %v: expected anchor reset to now", tt.elapsed)
		}
	}
}

func TestRegenerate_AnchorResetDiscardsBankedProgress(t *testing.T) {
	t.Parallel()

	// 2 lives gained but only 1 needed to reach the cap: the anchor still
	// moves to now, so the surplus half-window of progress is lost.
	last := base.Add(-4500 * time.Second)
	count, anchor := Regenerate(base, &last, 2, false)
	if count != Cap {
		t.Fatalf("expected capped count %d, got %d", Cap, count)
	}
	if anchor == nil || !anchor.Equal(base) {
		t.Fatalf("expected anchor reset to now even when gain was capped")
	}
}

func TestRegenerate_FullPoolIsNoOp(t *testing.T) {
	t.Parallel()

	last := base.Add(-10 * time.Hour)
	count, anchor := Regenerate(base, &last, Cap, false)
	if count != Cap {
		t.Fatalf("expected count %d, got %d", Cap, count)
	}
	if anchor == nil || !anchor.Equal(last) {
		t.Fatalf("expected anchor untouched for a full pool")
	}
}

func TestRegenerate_NilAnchorBootstraps(t *testing.T) {
	t.Parallel()

	count, anchor := Regenerate(base, nil, 1, false)
	if count != 1 {
		t.Fatalf("expected no life granted on bootstrap, got %d", count)
	}
	if anchor == nil || !anchor.Equal(base) {
		t.Fatalf("expected anchor initialized to now")
	}
}

func TestRegenerate_PremiumBypass(t *testing.T) {
	t.Parallel()

	last := base.Add(-10 * time.Hour)
	count, anchor := Regenerate(base, &last, 0, true)
	if count != 0 {
		t.Fatalf("expected premium regeneration to be a no-op, got %d", count)
	}
	if anchor == nil || !anchor.Equal(last) {
		t.Fatalf("expected premium anchor untouched")
	}
	if got := TimeToNext(base, &last, 0, true); got != 0 {
		t.Fatalf("expected premium time-to-next 0, got %d", got)
	}
}

func TestRegenerate_MixedTimezonesNormalized(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-3", -3*60*60)
	last := base.Add(-1800 * time.Second).In(loc)
	count, _ := Regenerate(base.In(loc), &last, 0, false)
	if count != 1 {
		t.Fatalf("expected 1 life across zone representations, got %d", count)
	}
}

func TestTimeToNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		anchor  *time.Time
		count   int
		premium bool
		want    int
	}{
		{name: "full pool", anchor: anchorAt(base), count: Cap, want: 0},
		{name: "nil anchor full window", anchor: nil, count: 0, want: 1800},
		{name: "half window left", anchor: anchorAt(base.Add(-900 * time.Second)), count: 0, want: 900},
		{name: "one second in", anchor: anchorAt(base.Add(-time.Second)), count: 0, want: 1799},
		{name: "overdue", anchor: anchorAt(base.Add(-time.Hour)), count: 0, want: 0},
		{name: "premium", anchor: nil, count: 0, premium: true, want: 0},
	}

	for _, tt := range tests {
		if got := TimeToNext(base, tt.anchor, tt.count, tt.premium); got != tt.want {
			t.Fatalf("%s: TimeToNext = %d, want %d", tt.name, got, tt.want)
		}
	}
}
