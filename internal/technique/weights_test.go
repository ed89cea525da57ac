package technique

import "testing"

// TestRoundHalf verifies the uniform half-up-to-nearest-0.5 rounding policy,
// including the boundary just below and exactly at a .25 midpoint.
func TestRoundHalf(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{21.24, 21.0},
		{21.25, 21.5},
		{21.75, 22.0},
		{21.74, 21.5},
		{100, 100},
		{0.2, 0.0},
		{0.25, 0.5},
		{64.0, 64.0},
		{83.3, 83.5},
		{83.2, 83.0},
	}
	for _, tt := range tests {
		if got := RoundHalf(tt.in); got != tt.want {
			t.Errorf("RoundHalf(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

// TestDropLadder verifies the canonical drop-set scenario: 2 drops at 20%
// from 100 yields [100, 80, 64].
func TestDropLadder(t *testing.T) {
	got := DropLadder(100, 2, 20)
	want := []float64{100, 80, 64}
	if len(got) != len(want) {
		t.Fatalf("ladder length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ladder[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

// TestDropLadderProperties verifies that for any drop count n the ladder has
// n+1 entries, each no greater than the previous and on a 0.5 boundary.
func TestDropLadderProperties(t *testing.T) {
	for _, drops := range []int{1, 2, 3, 5, 8} {
		for _, pct := range []float64{5, 12.5, 20, 33, 50} {
			ladder := DropLadder(102.3, drops, pct)
			if len(ladder) != drops+1 {
				t.Fatalf("drops=%d: ladder length = %d, want %d", drops, len(ladder), drops+1)
			}
			for i, w := range ladder {
				if w*2 != float64(int(w*2)) {
					t.Errorf("drops=%d pct=%g: ladder[%d]=%g not on 0.5 boundary", drops, pct, i, w)
				}
				if i > 0 && w > ladder[i-1] {
					t.Errorf("drops=%d pct=%g: ladder[%d]=%g exceeds previous %g", drops, pct, i, w, ladder[i-1])
				}
			}
		}
	}
}

// TestBackoffWeight verifies the top-set/backoff scenario: 15% off 100 is 85,
// and that rounding applies to non-grid results.
func TestBackoffWeight(t *testing.T) {
	if got := BackoffWeight(100, 15); got != 85 {
		t.Errorf("BackoffWeight(100, 15) = %g, want 85", got)
	}
	// 102.5 * 0.85 = 87.125 -> 87.0
	if got := BackoffWeight(102.5, 15); got != 87 {
		t.Errorf("BackoffWeight(102.5, 15) = %g, want 87", got)
	}
}
