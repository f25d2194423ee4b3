package encoder

import "testing"

// Forward Gray sequence as (A, B) levels: 00 -> 01 -> 11 -> 10.
var cwSequence = [4][2]bool{
	{false, false},
	{true, false},
	{true, true},
	{false, true},
}

func TestDecodeTable(t *testing.T) {
	want := map[[2]uint8]int8{
		{0, 0}: 0, {0, 1}: 1, {0, 2}: -1, {0, 3}: 0,
		{1, 0}: -1, {1, 1}: 0, {1, 2}: 0, {1, 3}: 1,
		{2, 0}: 1, {2, 1}: 0, {2, 2}: 0, {2, 3}: -1,
		{3, 0}: 0, {3, 1}: -1, {3, 2}: 1, {3, 3}: 0,
	}
	if len(want) != 16 {
		t.Fatalf("reference table has %d entries", len(want))
	}

	for k, w := range want {
		if got := decode(k[0], k[1]); got != w {
			t.Errorf("decode(%02b, %02b): got %d, want %d", k[0], k[1], got, w)
		}
	}
}

func TestDecodeBothBitsChangeIsZero(t *testing.T) {
	for prev := uint8(0); prev < 4; prev++ {
		for curr := uint8(0); curr < 4; curr++ {
			if prev^curr != 3 {
				continue
			}
			if got := decode(prev, curr); got != 0 {
				t.Errorf("decode(%02b, %02b): got %d, want 0 for two-bit change", prev, curr, got)
			}
		}
	}
}

func TestPhaseState(t *testing.T) {
	cases := []struct {
		a, b bool
		want uint8
	}{
		{false, false, 0},
		{true, false, 1},
		{false, true, 2},
		{true, true, 3},
	}
	for _, c := range cases {
		if got := phaseState(c.a, c.b); got != c.want {
			t.Errorf("phaseState(%v, %v): got %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestQuadratureNotchAfterFourSteps(t *testing.T) {
	q := quadrature{stepsPerNotch: 4}
	q.seed(false, false)

	// Three steps forward: no notch yet
	for i := 1; i <= 3; i++ {
		s := cwSequence[i]
		if got := q.step(s[0], s[1]); got != 0 {
			t.Fatalf("step %d: premature notch %d", i, got)
		}
	}
	// Fourth step back to 00 completes the detent
	if got := q.step(false, false); got != 1 {
		t.Fatalf("fourth step: got %d, want 1", got)
	}
	if q.accum != 0 {
		t.Errorf("accum after notch: got %d, want 0", q.accum)
	}
}

func TestQuadratureReverseNotch(t *testing.T) {
	q := quadrature{stepsPerNotch: 4}
	q.seed(false, false)

	notches := 0
	for i := 3; i >= 0; i-- {
		s := cwSequence[i]
		notches += q.step(s[0], s[1])
	}
	if notches != -1 {
		t.Errorf("reverse detent: got %d, want -1", notches)
	}
}

func TestQuadratureReversalMidNotchNoSpurious(t *testing.T) {
	q := quadrature{stepsPerNotch: 4}
	q.seed(false, false)

	// Forward three steps, then back three steps, then forward again.
	path := []int{1, 2, 3, 2, 1, 0, 1, 2, 3}
	total := 0
	for _, idx := range path {
		s := cwSequence[idx]
		total += q.step(s[0], s[1])
	}
	if total != 0 {
		t.Errorf("reversal produced %d notches, want 0", total)
	}
	if q.accum != 3 {
		t.Errorf("accum: got %d, want 3", q.accum)
	}
}

func TestQuadratureBounceIgnored(t *testing.T) {
	q := quadrature{stepsPerNotch: 4}
	q.seed(false, false)

	// 00 -> 11 -> 00 -> 11 are all two-bit jumps
	for i := 0; i < 8; i++ {
		v := i%2 == 0
		if got := q.step(v, v); got != 0 {
			t.Fatalf("bounce %d: got notch %d", i, got)
		}
	}
	if q.accum != 0 {
		t.Errorf("accum after bounce: got %d, want 0", q.accum)
	}
}

func TestQuadratureKeepsSubNotchPhase(t *testing.T) {
	q := quadrature{stepsPerNotch: 2}
	q.seed(false, false)

	// With two steps per notch, a full Gray cycle is two notches.
	total := 0
	for i := 1; i <= 4; i++ {
		s := cwSequence[i%4]
		total += q.step(s[0], s[1])
	}
	if total != 2 {
		t.Errorf("notches: got %d, want 2", total)
	}
}
