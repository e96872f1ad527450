// Package sampler observes CPU, memory and transfer progress on a fixed
// interval while a transfer runs.
package sampler

import (
	"sync"
	"time"
)

// DefaultInterval is the default sampling interval.
const DefaultInterval = 100 * time.Millisecond

const bytesPerMiB = 1024 * 1024

// Sample is one observation.
type Sample struct {
	// Elapsed is the time since Start.
	Elapsed time.Duration
	// CPUPercent is process CPU usage since the previous sample.
	CPUPercent float64
	// MemoryMB is resident memory in MiB.
	MemoryMB float64
	// TotalBytes is the byte counter value.
	TotalBytes int64
	// ThroughputMBps is the counter delta over the wall-clock delta, in MiB/s.
	ThroughputMBps float64
}

// Sampler collects Samples on its own goroutine between Start and Stop.
// A Sampler is single-use.
type Sampler struct {
	source StatsSource
	now    func() time.Time

	mu      sync.Mutex
	samples []Sample
	errs    int

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
	started   bool
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock sets the wall clock used for elapsed and throughput computation.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// New creates a sampler reading from source.
func New(source StatsSource, opts ...Option) *Sampler {
	s := &Sampler{
		source: source,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins sampling every interval. Subsequent calls are no-ops.
// interval <= 0 selects DefaultInterval.
func (s *Sampler) Start(interval time.Duration, counter *ByteCounter) {
	s.startOnce.Do(func() {
		if interval <= 0 {
			interval = DefaultInterval
		}
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()
		go s.loop(interval, counter)
	})
}

func (s *Sampler) loop(interval time.Duration, counter *ByteCounter) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := s.now()
	prevAt := start
	prevBytes := counter.Load()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		// Tick boundary: a stop requested during a tick takes effect at the next one.
		select {
		case <-s.stop:
			return
		default:
		}

		at := s.now()
		total := counter.Load()
		sample := Sample{
			Elapsed:    at.Sub(start),
			TotalBytes: total,
		}
		if dt := at.Sub(prevAt).Seconds(); dt > 0 {
			sample.ThroughputMBps = float64(total-prevBytes) / bytesPerMiB / dt
		}

		failed := false
		if cpu, err := s.source.CPUPercent(); err == nil {
			sample.CPUPercent = cpu
		} else {
			failed = true
		}
		if rss, err := s.source.RSSBytes(); err == nil {
			sample.MemoryMB = float64(rss) / bytesPerMiB
		} else {
			failed = true
		}

		s.mu.Lock()
		s.samples = append(s.samples, sample)
		if failed {
			s.errs++
		}
		s.mu.Unlock()

		prevAt = at
		prevBytes = total
	}
}

// Stop ends sampling, waits for the sampling goroutine to exit and returns a
// copy of the collected samples. It is idempotent and safe to call on a
// sampler that was never started.
func (s *Sampler) Stop() []Sample {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
	return s.Samples()
}

// Samples returns a copy of the samples collected so far.
func (s *Sampler) Samples() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// SourceErrors returns the number of samples for which the stats source failed.
// Failed readings are recorded as zero.
func (s *Sampler) SourceErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}
