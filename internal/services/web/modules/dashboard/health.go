package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	platformgrpc "github.com/casanorte/casanorte/internal/platform/grpc"
)

// Health check defaults.
const (
	DefaultHealthInterval = 30 * time.Second
	DefaultHealthTimeout  = 5 * time.Second
)

const (
	httpProbePath    = "/generate_204"
	grpcTargetScheme = "grpc://"
)

// Status is the last known state of a health target.
type Status string

// Health statuses.
const (
	StatusChecking  Status = "checking"
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Check is one health card.
type Check struct {
	Name      string
	Target    string
	Status    Status
	CheckedAt time.Time
}

// HealthSource reports the current health cards.
type HealthSource interface {
	Snapshot() []Check
}

// MonitorConfig configures a Monitor. Targets are http(s) base URLs or
// grpc://host:port addresses.
type MonitorConfig struct {
	Targets    []string
	GRPCAddr   string
	Interval   time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
	Dial       platformgrpc.DialerFunc
	Now        func() time.Time
	Logger     *log.Logger
}

type probe interface {
	check(ctx context.Context) error
}

type target struct {
	name   string
	target string
	probe  probe
}

// Monitor polls a fixed set of health targets in the background and keeps
// the last result of each.
type Monitor struct {
	targets  []target
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *log.Logger
	closers  []io.Closer

	mu     sync.RWMutex
	checks []Check
}

// NewMonitor builds a monitor with every target in the checking state.
// Blank and malformed targets are skipped.
func NewMonitor(cfg MonitorConfig) *Monitor {
	m := &Monitor{
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
	if m.interval <= 0 {
		m.interval = DefaultHealthInterval
	}
	if m.timeout <= 0 {
		m.timeout = DefaultHealthTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	raw := append([]string(nil), cfg.Targets...)
	if addr := strings.TrimSpace(cfg.GRPCAddr); addr != "" {
		raw = append(raw, grpcTargetScheme+addr)
	}
	seen := make(map[string]bool, len(raw))
	for _, value := range raw {
		value = strings.TrimRight(strings.TrimSpace(value), "/")
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		if addr, ok := strings.CutPrefix(value, grpcTargetScheme); ok {
			hp := platformgrpc.NewHealthProbe(addr, "", cfg.Dial)
			m.closers = append(m.closers, hp)
			m.targets = append(m.targets, target{name: addr, target: value, probe: grpcProbe{probe: hp}})
			continue
		}
		parsed, err := url.Parse(value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			m.logger.Printf("health target skipped target=%q", value)
			continue
		}
		m.targets = append(m.targets, target{name: parsed.Host, target: value, probe: httpProbe{client: client, url: value + httpProbePath}})
	}

	m.checks = make([]Check, len(m.targets))
	for i, t := range m.targets {
		m.checks[i] = Check{Name: t.name, Target: t.target, Status: StatusChecking}
	}
	return m
}

// Snapshot returns a copy of the current health cards in target order.
func (m *Monitor) Snapshot() []Check {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Check(nil), m.checks...)
}

// Interval returns the polling interval.
func (m *Monitor) Interval() time.Duration {
	if m == nil {
		return DefaultHealthInterval
	}
	return m.interval
}

// CheckAll probes every target concurrently and records the results.
func (m *Monitor) CheckAll(ctx context.Context) {
	if m == nil || len(m.targets) == 0 {
		return
	}
	var wg sync.WaitGroup
	for i, t := range m.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()
			status := StatusHealthy
			if err := t.probe.check(callCtx); err != nil {
				status = StatusUnhealthy
				m.logger.Printf("health check failed target=%s err=%v", t.target, err)
			}
			m.record(i, status)
		}()
	}
	wg.Wait()
}

// Run checks immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	if m == nil || len(m.targets) == 0 {
		return
	}
	m.CheckAll(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// Close releases gRPC connections held by the monitor.
func (m *Monitor) Close() error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Monitor) record(i int, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[i].Status = status
	m.checks[i].CheckedAt = m.now().UTC()
}

type httpProbe struct {
	client *http.Client
	url    string
}

func (p httpProbe) check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

type grpcProbe struct {
	probe *platformgrpc.HealthProbe
}

func (p grpcProbe) check(ctx context.Context) error {
	return p.probe.Check(ctx)
}
