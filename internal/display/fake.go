package display

import "sync"

// FakeDisplay records display commands for test assertions.
type FakeDisplay struct {
	mu sync.Mutex

	// Renders contains every RenderTime call as total seconds.
	Renders []int

	// Backlight contains every SetBacklight call.
	Backlight []bool
}

// NewFakeDisplay creates a FakeDisplay.
func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{}
}

// RenderTime records the shown time after the same saturation as the LCD.
func (f *FakeDisplay) RenderTime(minutes, seconds int) {
	f.mu.Lock()
	f.Renders = append(f.Renders, saturate(minutes)*60+saturate(seconds))
	f.mu.Unlock()
}

// SetBacklight records the backlight command.
func (f *FakeDisplay) SetBacklight(on bool) {
	f.mu.Lock()
	f.Backlight = append(f.Backlight, on)
	f.mu.Unlock()
}

// Shown returns the last rendered time in seconds, or -1 if nothing was shown.
func (f *FakeDisplay) Shown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Renders) == 0 {
		return -1
	}
	return f.Renders[len(f.Renders)-1]
}

// Lit returns the last backlight command.
func (f *FakeDisplay) Lit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Backlight) > 0 && f.Backlight[len(f.Backlight)-1]
}

// Reset clears recorded commands.
func (f *FakeDisplay) Reset() {
	f.mu.Lock()
	f.Renders = nil
	f.Backlight = nil
	f.mu.Unlock()
}
