package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/response"
)

const (
	metricsInterval = 7 * time.Second
	healthTimeout   = 2 * time.Second
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the health check and streams process, dependency
// and queue metrics to admins via SSE.
type SystemHandler struct {
	db        Pinger
	rdb       *redis.Client
	version   string
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(db Pinger, rdb *redis.Client, version string, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		version:   version,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// ---------- Health ----------

type healthStatus struct {
	Status   string            `json:"status"`
	Version  string            `json:"version,omitempty"`
	Uptime   string            `json:"uptime"`
	Services map[string]string `json:"services"`
}

// Health godoc
// GET /health
// Pings Postgres and Redis. Answers 503 when either is down.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := healthStatus{
		Status:   "ok",
		Version:  h.version,
		Uptime:   h.uptime(),
		Services: map[string]string{"postgres": "ok", "redis": "ok"},
	}
	if err := h.db.Ping(ctx); err != nil {
		h.log.Error().Err(err).Msg("Health check: postgres down")
		status.Services["postgres"] = "down"
		status.Status = "degraded"
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		h.log.Error().Err(err).Msg("Health check: redis down")
		status.Services["redis"] = "down"
		status.Status = "degraded"
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, status)
}

// ---------- Metrics Stream ----------

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version,omitempty"`

	// Process
	Goroutines   int    `json:"goroutines"`
	HeapAlloc    uint64 `json:"heap_alloc"`
	HeapSys      uint64 `json:"heap_sys"`
	NumGC        uint32 `json:"num_gc"`
	RSSBytes     uint64 `json:"rss_bytes"`
	HostMemTotal uint64 `json:"host_mem_total"`
	HostMemAvail uint64 `json:"host_mem_available"`
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`

	// Dependency round trips in milliseconds, -1 when unreachable.
	PostgresLatencyMs float64 `json:"postgres_latency_ms"`
	RedisLatencyMs    float64 `json:"redis_latency_ms"`

	// Pending jobs per worker queue.
	Queues map[string]int64 `json:"queues"`
}

// SystemMetricsSSE godoc
// GET /api/v1/admin/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	if middleware.GetClaims(c) == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	h.log.Info().Msg("Admin subscribed to system metrics")
	for {
		if err := h.writeEvent(c, h.collect(ctx)); err != nil {
			h.log.Debug().Err(err).Msg("Metrics stream write failed")
			return
		}
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Admin unsubscribed from system metrics")
			return
		case <-ticker.C:
		}
	}
}

func (h *SystemHandler) writeEvent(c *gin.Context, m systemMetrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := c.Writer.Write(append(append([]byte("event: metrics\ndata: "), data...), '\n', '\n')); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := systemMetrics{
		Timestamp:  time.Now().Unix(),
		Uptime:     h.uptime(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		NumGC:      ms.NumGC,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
	}
	m.RSSBytes, _ = readProcKB("/proc/self/status", "VmRSS")
	m.HostMemTotal, _ = readProcKB("/proc/meminfo", "MemTotal")
	m.HostMemAvail, _ = readProcKB("/proc/meminfo", "MemAvailable")

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	m.PostgresLatencyMs = timePing(func() error { return h.db.Ping(ctx) })
	m.RedisLatencyMs = timePing(func() error { return h.rdb.Ping(ctx).Err() })

	pipe := h.rdb.Pipeline()
	lens := make(map[string]*redis.IntCmd)
	for label, key := range config.Queues.Depths() {
		lens[label] = pipe.LLen(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err == nil {
		m.Queues = make(map[string]int64, len(lens))
		for label, cmd := range lens {
			m.Queues[label] = cmd.Val()
		}
	}
	return m
}

func (h *SystemHandler) uptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}

func timePing(ping func() error) float64 {
	start := time.Now()
	if err := ping(); err != nil {
		return -1
	}
	return float64(time.Since(start).Microseconds()) / 1000
}

var errProcKeyMissing = errors.New("key not found")

// readProcKB returns a "Key:   1234 kB" field from a /proc file in bytes.
func readProcKB(path, key string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	prefix := key + ":"
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		fields := strings.Fields(line[len(prefix):])
		if len(fields) == 0 {
			return 0, errProcKeyMissing
		}
		kb, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, errProcKeyMissing
}
