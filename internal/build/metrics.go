package build

import (
	"sync"
	"time"
)

// Metrics counts compilations. It is safe for concurrent use.
type Metrics struct {
	mu   sync.Mutex
	snap Snapshot
}

// Snapshot is a copy of the counters at one moment. BySyntax counts builds
// per grammar name.
type Snapshot struct {
	Builds        int64            `json:"total_builds"`
	Failed        int64            `json:"failed_builds"`
	CacheHits     int64            `json:"cache_hits"`
	BySyntax      map[string]int64 `json:"by_syntax"`
	TotalDuration time.Duration    `json:"-"`
	LastBuild     time.Time        `json:"last_build"`
}

// Record adds one build result.
func (m *Metrics) Record(result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap.Builds++
	m.snap.TotalDuration += result.Duration
	m.snap.LastBuild = time.Now()
	if result.CacheHit {
		m.snap.CacheHits++
	}
	if result.Failed() {
		m.snap.Failed++
	}
	if result.File != nil {
		if m.snap.BySyntax == nil {
			m.snap.BySyntax = make(map[string]int64)
		}
		m.snap.BySyntax[result.File.Syntax.String()]++
	}
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.snap
	s.BySyntax = make(map[string]int64, len(m.snap.BySyntax))
	for k, v := range m.snap.BySyntax {
		s.BySyntax[k] = v
	}
	return s
}

// Succeeded is the number of builds that produced a template.
func (s Snapshot) Succeeded() int64 { return s.Builds - s.Failed }

// AverageDuration is zero before the first build.
func (s Snapshot) AverageDuration() time.Duration {
	if s.Builds == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Builds)
}

// CacheHitRate is the percentage of builds served from the cache.
func (s Snapshot) CacheHitRate() float64 {
	if s.Builds == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Builds) * 100
}

// SuccessRate is the percentage of builds that compiled.
func (s Snapshot) SuccessRate() float64 {
	if s.Builds == 0 {
		return 0
	}
	return float64(s.Succeeded()) / float64(s.Builds) * 100
}
