// Package cache holds small in-process caches and the janitor that expires
// their entries in the background.
package cache

import (
	"sync"
	"time"

	"arbdash/internal/log"
)

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans every registered cache.
type Janitor struct {
	mu      sync.Mutex
	caches  []Cleaner
	logger  *log.Logger
	stop    chan struct{}
	done    chan struct{}
	started bool
	stopped bool
}

func NewJanitor(logger *log.Logger) *Janitor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Janitor{
		logger: logger.WithComponent(log.ComponentCache),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (j *Janitor) Register(c Cleaner) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches = append(j.caches, c)
}

// Start runs a cleanup pass every interval until Stop is called. A stopped
// Janitor cannot be restarted.
func (j *Janitor) Start(interval time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started || j.stopped {
		return
	}
	j.started = true
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := j.Clean(); n > 0 {
				j.logger.Debug("Expired cache entries removed", "removed", n)
			}
		case <-j.stop:
			return
		}
	}
}

// Clean runs one pass over all caches and returns the number of entries
// removed.
func (j *Janitor) Clean() int {
	j.mu.Lock()
	caches := append([]Cleaner(nil), j.caches...)
	j.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the background loop. It is safe to call when Start never ran.
func (j *Janitor) Stop() {
	j.mu.Lock()
	started := j.started && !j.stopped
	j.stopped = true
	j.mu.Unlock()
	if !started {
		return
	}
	close(j.stop)
	<-j.done
}
