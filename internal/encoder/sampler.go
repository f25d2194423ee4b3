package encoder

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/once-timer/internal/gpio"
)

// DefaultSamplePeriod is the sampling cadence (1 kHz).
const DefaultSamplePeriod = time.Millisecond

// Sampler is the periodic sampling context. It reads the pins on a fixed
// period and feeds each reading into the Encoder.
type Sampler struct {
	reader   gpio.Reader
	enc      *Encoder
	period   time.Duration
	priority int
}

// NewSampler creates a sampler. A non-positive period uses DefaultSamplePeriod.
// priority > 0 requests that realtime priority for the sampling thread.
func NewSampler(reader gpio.Reader, enc *Encoder, period time.Duration, priority int) *Sampler {
	if period <= 0 {
		period = DefaultSamplePeriod
	}
	return &Sampler{
		reader:   reader,
		enc:      enc,
		period:   period,
		priority: priority,
	}
}

// Run samples until ctx is cancelled. It always returns nil after
// cancellation: read errors skip the tick and are logged once per streak.
func (s *Sampler) Run(ctx context.Context) error {
	if s.priority > 0 {
		release, err := lockRealtime(s.priority)
		if err != nil {
			log.Printf("sampler: realtime priority unavailable: %v", err)
		}
		defer release()
	}

	if sample, err := s.reader.Read(); err == nil {
		s.enc.Seed(sample)
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	failing := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sample, err := s.reader.Read()
			if err != nil {
				if failing == 0 {
					log.Printf("sampler: gpio read error: %v", err)
				}
				failing++
				continue
			}
			if failing > 0 {
				log.Printf("sampler: gpio recovered after %d failed reads", failing)
				failing = 0
			}
			s.enc.Sample(sample)
		}
	}
}
