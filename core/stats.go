package core

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CrawlStats counts what a mirror run did. All methods are safe for
// concurrent use.
type CrawlStats struct {
	pagesVisited int64
	assetsStored int64
	urlsFound    int64
	bytesStored  int64
	errors       int64
}

func NewCrawlStats() *CrawlStats {
	return &CrawlStats{}
}

func (s *CrawlStats) IncrementPagesVisited() {
	atomic.AddInt64(&s.pagesVisited, 1)
}

func (s *CrawlStats) AddStored(bytes int) {
	atomic.AddInt64(&s.assetsStored, 1)
	atomic.AddInt64(&s.bytesStored, int64(bytes))
}

func (s *CrawlStats) AddURLsFound(count int) {
	if count > 0 {
		atomic.AddInt64(&s.urlsFound, int64(count))
	}
}

func (s *CrawlStats) IncrementErrors() {
	atomic.AddInt64(&s.errors, 1)
}

func (s *CrawlStats) GetPagesVisited() int64 {
	return atomic.LoadInt64(&s.pagesVisited)
}

func (s *CrawlStats) GetAssetsStored() int64 {
	return atomic.LoadInt64(&s.assetsStored)
}

func (s *CrawlStats) GetURLsFound() int64 {
	return atomic.LoadInt64(&s.urlsFound)
}

func (s *CrawlStats) GetBytesStored() int64 {
	return atomic.LoadInt64(&s.bytesStored)
}

func (s *CrawlStats) GetErrors() int64 {
	return atomic.LoadInt64(&s.errors)
}

func (s *CrawlStats) GetRPS(elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(s.GetAssetsStored()) / seconds
}

// ProcessorTiming is the accumulated cost of one processor operation.
type ProcessorTiming struct {
	Processor string        `json:"processor"`
	Operation string        `json:"operation"`
	Calls     int64         `json:"calls"`
	Total     time.Duration `json:"total_ns"`
}

// ProcessorStats accumulates per-processor timings recorded by the Manager.
type ProcessorStats struct {
	mu      sync.Mutex
	entries map[[2]string]*ProcessorTiming
}

func NewProcessorStats() *ProcessorStats {
	return &ProcessorStats{entries: make(map[[2]string]*ProcessorTiming)}
}

func (s *ProcessorStats) Record(processor, operation string, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{processor, operation}
	entry, ok := s.entries[key]
	if !ok {
		entry = &ProcessorTiming{Processor: processor, Operation: operation}
		s.entries[key] = entry
	}
	entry.Calls++
	entry.Total += elapsed
}

// Snapshot returns a copy of the timings sorted by processor and operation.
func (s *ProcessorStats) Snapshot() []ProcessorTiming {
	s.mu.Lock()
	out := make([]ProcessorTiming, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Processor != out[j].Processor {
			return out[i].Processor < out[j].Processor
		}
		return out[i].Operation < out[j].Operation
	})
	return out
}
