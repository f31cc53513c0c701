package performance

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiler aggregates timings of simulation sections (chunk generation,
// cleanup, visible-tile queries, whole ticks) and plain event counters.
// All methods are safe on a nil *Profiler, which records nothing.
type Profiler struct {
	mu        sync.RWMutex
	metrics   map[string]*Metric
	counters  map[string]int64
	enabled   bool
	slow      time.Duration
	startTime time.Time
}

// Metric holds the statistics of one timed section.
type Metric struct {
	Name      string
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
	LastTime  time.Duration
	LastCall  time.Time
	Slow      int64
}

// Operation is a single in-flight timing.
type Operation struct {
	profiler *Profiler
	name     string
	start    time.Time
}

// NewProfiler creates a profiler
func NewProfiler(enabled bool) *Profiler {
	return &Profiler{
		metrics:   make(map[string]*Metric),
		counters:  make(map[string]int64),
		enabled:   enabled,
		startTime: time.Now(),
	}
}

// SetSlowThreshold makes the profiler log and count any section slower than d.
// Zero disables the check.
func (p *Profiler) SetSlowThreshold(d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slow = d
}

// Start begins timing a section. The returned operation may be nil.
func (p *Profiler) Start(name string) *Operation {
	if !p.IsEnabled() {
		return nil
	}
	return &Operation{profiler: p, name: name, start: time.Now()}
}

// End records the elapsed time of the operation
func (o *Operation) End() {
	if o == nil {
		return
	}
	o.profiler.Record(o.name, time.Since(o.start))
}

// Record adds one sample for a section.
func (p *Profiler) Record(name string, duration time.Duration) {
	if !p.IsEnabled() {
		return
	}

	p.mu.Lock()
	metric, exists := p.metrics[name]
	if !exists {
		metric = &Metric{Name: name, MinTime: duration, MaxTime: duration}
		p.metrics[name] = metric
	}
	metric.Count++
	metric.TotalTime += duration
	metric.LastTime = duration
	metric.LastCall = time.Now()
	if duration < metric.MinTime {
		metric.MinTime = duration
	}
	if duration > metric.MaxTime {
		metric.MaxTime = duration
	}
	threshold := p.slow
	slow := threshold > 0 && duration > threshold
	if slow {
		metric.Slow++
	}
	p.mu.Unlock()

	if slow {
		log.Printf("[Perf] %s took %s (threshold %s)", name, duration, threshold)
	}
}

// Count adds n to a named event counter.
func (p *Profiler) Count(name string, n int64) {
	if !p.IsEnabled() || n == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters[name] += n
}

// Counter returns the value of an event counter
func (p *Profiler) Counter(name string) int64 {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.counters[name]
}

// GetMetric returns a copy of one section's statistics, or nil.
func (p *Profiler) GetMetric(name string) *Metric {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	metric, ok := p.metrics[name]
	if !ok {
		return nil
	}
	cp := *metric
	return &cp
}

// GetMetrics returns copies of all section statistics.
func (p *Profiler) GetMetrics() map[string]*Metric {
	result := make(map[string]*Metric)
	if p == nil {
		return result
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for name, metric := range p.metrics {
		cp := *metric
		result[name] = &cp
	}
	return result
}

// AverageTime returns the mean sample
func (m *Metric) AverageTime() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.TotalTime / time.Duration(m.Count)
}

// Reset clears all metrics and counters.
func (p *Profiler) Reset() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = make(map[string]*Metric)
	p.counters = make(map[string]int64)
	p.startTime = time.Now()
}

func (p *Profiler) sortedNames() []string {
	names := make([]string, 0, len(p.metrics))
	for name := range p.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report renders a human-readable table of sections and counters.
func (p *Profiler) Report() string {
	if p == nil {
		return "Profiling disabled"
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.metrics) == 0 && len(p.counters) == 0 {
		return "No performance metrics recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Performance Report (since %s) ===\n", p.startTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "%-32s %10s %10s %10s %10s %10s %6s\n", "Section", "Count", "Avg", "Min", "Max", "Last", "Slow")
	b.WriteString(strings.Repeat("-", 94) + "\n")
	for _, name := range p.sortedNames() {
		m := p.metrics[name]
		fmt.Fprintf(&b, "%-32s %10d %10s %10s %10s %10s %6d\n",
			name,
			m.Count,
			m.AverageTime().Round(time.Microsecond),
			m.MinTime.Round(time.Microsecond),
			m.MaxTime.Round(time.Microsecond),
			m.LastTime.Round(time.Microsecond),
			m.Slow,
		)
	}

	if len(p.counters) > 0 {
		counters := make([]string, 0, len(p.counters))
		for name := range p.counters {
			counters = append(counters, name)
		}
		sort.Strings(counters)
		b.WriteString("\nCounters:\n")
		for _, name := range counters {
			fmt.Fprintf(&b, "  %-30s %d\n", name, p.counters[name])
		}
	}

	fmt.Fprintf(&b, "\nTotal runtime: %s\n", time.Since(p.startTime).Round(time.Second))
	return b.String()
}

// LogReport logs the performance report
func (p *Profiler) LogReport() {
	log.Print(p.Report())
}

// MetricJSON is the wire form of a Metric. Durations are microseconds.
type MetricJSON struct {
	Name    string    `json:"name"`
	Count   int64     `json:"count"`
	TotalUS int64     `json:"total_us"`
	AvgUS   int64     `json:"avg_us"`
	MinUS   int64     `json:"min_us"`
	MaxUS   int64     `json:"max_us"`
	LastUS  int64     `json:"last_us"`
	Slow    int64     `json:"slow"`
	LastRun time.Time `json:"last_call"`
}

// ReportJSON is the wire form of a full report.
type ReportJSON struct {
	StartTime time.Time              `json:"start_time"`
	RuntimeMS int64                  `json:"runtime_ms"`
	Metrics   map[string]*MetricJSON `json:"metrics"`
	Counters  map[string]int64       `json:"counters"`
}

// Snapshot returns the report in its wire form.
func (p *Profiler) Snapshot() ReportJSON {
	report := ReportJSON{
		Metrics:  make(map[string]*MetricJSON),
		Counters: make(map[string]int64),
	}
	if p == nil {
		return report
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	report.StartTime = p.startTime
	report.RuntimeMS = time.Since(p.startTime).Milliseconds()
	for name, m := range p.metrics {
		report.Metrics[name] = &MetricJSON{
			Name:    m.Name,
			Count:   m.Count,
			TotalUS: m.TotalTime.Microseconds(),
			AvgUS:   m.AverageTime().Microseconds(),
			MinUS:   m.MinTime.Microseconds(),
			MaxUS:   m.MaxTime.Microseconds(),
			LastUS:  m.LastTime.Microseconds(),
			Slow:    m.Slow,
			LastRun: m.LastCall,
		}
	}
	for name, v := range p.counters {
		report.Counters[name] = v
	}
	return report
}

// JSONReport renders Snapshot as indented JSON
func (p *Profiler) JSONReport() ([]byte, error) {
	return json.MarshalIndent(p.Snapshot(), "", "  ")
}

// Enable turns recording on
func (p *Profiler) Enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = true
}

// Disable turns recording off; existing metrics are kept.
func (p *Profiler) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
}

// IsEnabled reports whether the profiler records samples.
func (p *Profiler) IsEnabled() bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}
