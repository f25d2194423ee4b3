package encoder

// debouncer filters contact bounce on the push switch. A level is accepted
// once it has been seen unchanged on stableTicks consecutive samples after
// the sample where it first appeared.
type debouncer struct {
	stableTicks uint8
	last        bool
	stable      bool
	count       uint8
}

// seed adopts the current level as both raw and stable, so a button held at
// startup is not reported as a press.
func (d *debouncer) seed(pressed bool) {
	d.last = pressed
	d.stable = pressed
	d.count = 0
}

// step processes one sample and reports whether a press edge was committed.
func (d *debouncer) step(pressed bool) bool {
	if pressed != d.last {
		d.last = pressed
		d.count = 0
		return false
	}

	if d.count < d.stableTicks {
		d.count++
	}
	if d.count >= d.stableTicks && d.stable != pressed {
		d.stable = pressed
		return pressed
	}
	return false
}
