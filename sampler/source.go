package sampler

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// StatsSource reports resource usage of the observed process.
type StatsSource interface {
	// CPUPercent returns CPU usage since the previous call, as a percentage
	// of one core.
	CPUPercent() (float64, error)
	// RSSBytes returns resident memory in bytes.
	RSSBytes() (uint64, error)
}

// ProcessSource reads usage of a process through gopsutil. The CPU baseline
// belongs to the source, so each Sampler needs its own; use Fork to get one
// per sampler.
type ProcessSource struct {
	mu      *sync.Mutex // guards proc, shared by forks
	proc    *process.Process
	cpuTime func() (float64, error)
	now     func() time.Time

	lastCPU float64
	lastAt  time.Time
}

// NewProcessSource observes the current process.
func NewProcessSource() (*ProcessSource, error) {
	return NewProcessSourceForPID(int32(os.Getpid()))
}

// NewProcessSourceForPID observes the process with the given pid.
func NewProcessSourceForPID(pid int32) (*ProcessSource, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", pid, err)
	}
	cpuTime := func() (float64, error) {
		t, err := proc.Times()
		if err != nil {
			return 0, err
		}
		return t.User + t.System, nil
	}
	return newProcessSource(&sync.Mutex{}, proc, cpuTime, time.Now), nil
}

// newProcessSource primes the CPU baseline so the first reading covers one
// interval.
func newProcessSource(mu *sync.Mutex, proc *process.Process, cpuTime func() (float64, error), now func() time.Time) *ProcessSource {
	s := &ProcessSource{mu: mu, proc: proc, cpuTime: cpuTime, now: now}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, err := s.cpuTime(); err == nil {
		s.lastCPU = c
	}
	s.lastAt = s.now()
	return s
}

// Fork returns a source on the same process with a fresh CPU baseline.
func (s *ProcessSource) Fork() *ProcessSource {
	return newProcessSource(s.mu, s.proc, s.cpuTime, s.now)
}

// CPUPercent implements StatsSource. It covers the time since this source's
// previous call.
func (s *ProcessSource) CPUPercent() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cpuTime()
	if err != nil {
		return 0, err
	}
	at := s.now()
	var pct float64
	if dt := at.Sub(s.lastAt).Seconds(); dt > 0 {
		pct = (c - s.lastCPU) / dt * 100
	}
	s.lastCPU, s.lastAt = c, at
	return pct, nil
}

// RSSBytes implements StatsSource.
func (s *ProcessSource) RSSBytes() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return mem.RSS, nil
}
