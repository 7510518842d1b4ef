package observability

import (
	"crm-realtime/domain"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is the snapshot served on /healthz and logged by the telemetry worker.
type Stats struct {
	ActiveConnections int64                       `json:"active_connections"`
	TotalConnections  uint64                      `json:"total_connections"`
	FramesReceived    uint64                      `json:"frames_received"`
	HandlerErrors     uint64                      `json:"handler_errors"`
	Delivered         map[domain.GroupName]uint64 `json:"delivered"`
	Groups            map[domain.GroupName]int    `json:"groups"`
	AllocMemMb        uint64                      `json:"alloc_mem_mb"`
	NumGC             uint32                      `json:"num_gc"`
	RSSMb             uint64                      `json:"rss_mb"`
	CPUPercent        float64                     `json:"cpu_percent"`
	Uptime            string                      `json:"uptime"`
}

// Counters gathers real time counters. All methods are safe for concurrent use.
type Counters struct {
	startedAt time.Time
	active    int64
	total     uint64
	frames    uint64
	errors    uint64

	mu        sync.RWMutex
	delivered map[domain.GroupName]uint64
	rssMb     uint64
	cpu       float64
}

func NewCounters() *Counters {
	return &Counters{
		startedAt: time.Now(),
		delivered: make(map[domain.GroupName]uint64),
	}
}

func (c *Counters) ConnectionOpened() {
	atomic.AddInt64(&c.active, 1)
	atomic.AddUint64(&c.total, 1)
}

func (c *Counters) ConnectionClosed() {
	atomic.AddInt64(&c.active, -1)
}

func (c *Counters) IncrFrames() {
	atomic.AddUint64(&c.frames, 1)
}

func (c *Counters) IncrErrors() {
	atomic.AddUint64(&c.errors, 1)
}

func (c *Counters) Delivered(group domain.GroupName, n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered[group] += uint64(n)
}

// SetProcess records the latest process sample taken by the telemetry worker.
func (c *Counters) SetProcess(rssMb uint64, cpu float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rssMb = rssMb
	c.cpu = cpu
}

func (c *Counters) Snapshot(groups map[domain.GroupName]int) Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.mu.RLock()
	delivered := make(map[domain.GroupName]uint64, len(c.delivered))
	for g, n := range c.delivered {
		delivered[g] = n
	}
	rss, cpu := c.rssMb, c.cpu
	c.mu.RUnlock()

	return Stats{
		ActiveConnections: atomic.LoadInt64(&c.active),
		TotalConnections:  atomic.LoadUint64(&c.total),
		FramesReceived:    atomic.LoadUint64(&c.frames),
		HandlerErrors:     atomic.LoadUint64(&c.errors),
		Delivered:         delivered,
		Groups:            groups,
		AllocMemMb:        m.Alloc / 1024 / 1024,
		NumGC:             m.NumGC,
		RSSMb:             rss,
		CPUPercent:        cpu,
		Uptime:            time.Since(c.startedAt).Round(time.Second).String(),
	}
}
