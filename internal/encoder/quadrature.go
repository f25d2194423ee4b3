package encoder

// quadratureTable maps prev<<2|curr, where each 2-bit phase state is B<<1|A,
// to a step of -1, 0 or +1.
//
// A leads B when turning clockwise, so the forward Gray sequence is
// 00 -> 01 -> 11 -> 10 -> 00 and each adjacent move forward is +1, backward -1.
// Staying put, or a move where both bits flip between two samples (a bounce or
// a skipped state), carries no direction and decodes to 0.
var quadratureTable = [16]int8{
	// prev=00 -> curr=00,01,10,11
	0, +1, -1, 0,
	// prev=01 -> curr=00,01,10,11
	-1, 0, 0, +1,
	// prev=10 -> curr=00,01,10,11
	+1, 0, 0, -1,
	// prev=11 -> curr=00,01,10,11
	0, -1, +1, 0,
}

// phaseState packs the two phase levels into B<<1|A.
func phaseState(a, b bool) uint8 {
	var s uint8
	if a {
		s |= 1
	}
	if b {
		s |= 2
	}
	return s
}

// decode returns the step for a move between two phase states.
func decode(prev, curr uint8) int8 {
	return quadratureTable[(prev&3)<<2|(curr&3)]
}

// quadrature accumulates decoded steps into whole detents.
type quadrature struct {
	stepsPerNotch int32
	prev          uint8
	accum         int32
}

// seed sets the reference phase state without decoding an edge.
func (q *quadrature) seed(a, b bool) {
	q.prev = phaseState(a, b)
	q.accum = 0
}

// step decodes one sample and returns +1 or -1 when a detent is confirmed,
// 0 otherwise. The remainder beyond a full detent is kept so that sub-notch
// phase is not lost.
func (q *quadrature) step(a, b bool) int {
	curr := phaseState(a, b)
	delta := decode(q.prev, curr)
	q.prev = curr
	if delta == 0 {
		return 0
	}

	q.accum += int32(delta)
	if q.accum >= q.stepsPerNotch {
		q.accum -= q.stepsPerNotch
		return 1
	}
	if q.accum <= -q.stepsPerNotch {
		q.accum += q.stepsPerNotch
		return -1
	}
	return 0
}
