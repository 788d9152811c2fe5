package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// MetricsCollector 指標收集器
type MetricsCollector struct {
	startTime time.Time

	monitor *Monitor
	logger  *zap.Logger
}

// MetricsSnapshot 指標快照
type MetricsSnapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	Uptime       string    `json:"uptime"`
	MonitorState string    `json:"monitor_state"`

	// 輪詢指標
	Polls      uint64  `json:"polls"`
	PollErrors uint64  `json:"poll_errors"`
	Timeouts   uint64  `json:"timeouts"`
	Reconnects uint64  `json:"reconnects"`
	ErrorRate  float64 `json:"error_rate"`

	// 系統樣本值
	GridWatts  float64 `json:"grid_watts"`
	BatterySOC float64 `json:"battery_soc"`
	PVWatts    float64 `json:"pv_watts"`
}

// NewMetricsCollector 建立指標收集器
func NewMetricsCollector(monitor *Monitor, logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		monitor: monitor,
		logger:  logger,
	}
}

// Start 啟動指標 HTTP 伺服器
func (m *MetricsCollector) Start(endpoint string, port int) error {
	m.startTime = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc(endpoint, m.handleMetrics)
	mux.HandleFunc("/health", m.handleHealth)
	mux.HandleFunc("/ready", m.handleReady)

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("啟動指標伺服器", zap.String("addr", addr))

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("指標伺服器錯誤", zap.Error(err))
		}
	}()

	return nil
}

// Snapshot 取得指標快照
func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	last := m.monitor.LastSnapshot()

	polls := m.monitor.stats.Polls.Load()
	pollErrs := m.monitor.stats.PollErrors.Load()

	snapshot := MetricsSnapshot{
		Timestamp:    time.Now(),
		Uptime:       time.Since(m.startTime).String(),
		MonitorState: m.monitor.State().String(),
		Polls:        polls,
		PollErrors:   pollErrs,
		Timeouts:     m.monitor.stats.Timeouts.Load(),
		Reconnects:   m.monitor.stats.Reconnects.Load(),
		GridWatts:    last.GridWatts,
		BatterySOC:   last.BatterySOC,
		PVWatts:      last.PVWatts,
	}

	if polls > 0 {
		snapshot.ErrorRate = float64(pollErrs) / float64(polls) * 100
	}

	return snapshot
}

// handleMetrics 處理 /metrics 請求
func (m *MetricsCollector) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot := m.Snapshot()

	// 檢查 Accept header
	accept := r.Header.Get("Accept")
	if accept == "application/json" || r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snapshot)
		return
	}

	// Prometheus 格式
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	fmt.Fprintf(w, "# HELP essmon_uptime_seconds Uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE essmon_uptime_seconds gauge\n")
	fmt.Fprintf(w, "essmon_uptime_seconds %f\n\n", time.Since(m.startTime).Seconds())

	fmt.Fprintf(w, "# HELP essmon_polls_total Total number of poll cycles\n")
	fmt.Fprintf(w, "# TYPE essmon_polls_total counter\n")
	fmt.Fprintf(w, "essmon_polls_total %d\n\n", snapshot.Polls)

	fmt.Fprintf(w, "# HELP essmon_poll_errors_total Total number of failed poll cycles\n")
	fmt.Fprintf(w, "# TYPE essmon_poll_errors_total counter\n")
	fmt.Fprintf(w, "essmon_poll_errors_total %d\n\n", snapshot.PollErrors)

	fmt.Fprintf(w, "# HELP essmon_timeouts_total Total number of request timeouts\n")
	fmt.Fprintf(w, "# TYPE essmon_timeouts_total counter\n")
	fmt.Fprintf(w, "essmon_timeouts_total %d\n\n", snapshot.Timeouts)

	fmt.Fprintf(w, "# HELP essmon_reconnects_total Total number of reconnect attempts\n")
	fmt.Fprintf(w, "# TYPE essmon_reconnects_total counter\n")
	fmt.Fprintf(w, "essmon_reconnects_total %d\n\n", snapshot.Reconnects)

	fmt.Fprintf(w, "# HELP essmon_grid_power_watts Grid power reading\n")
	fmt.Fprintf(w, "# TYPE essmon_grid_power_watts gauge\n")
	fmt.Fprintf(w, "essmon_grid_power_watts %f\n\n", snapshot.GridWatts)

	fmt.Fprintf(w, "# HELP essmon_battery_soc_percent Battery state of charge\n")
	fmt.Fprintf(w, "# TYPE essmon_battery_soc_percent gauge\n")
	fmt.Fprintf(w, "essmon_battery_soc_percent %f\n\n", snapshot.BatterySOC)

	fmt.Fprintf(w, "# HELP essmon_pv_power_watts Solar charger power reading\n")
	fmt.Fprintf(w, "# TYPE essmon_pv_power_watts gauge\n")
	fmt.Fprintf(w, "essmon_pv_power_watts %f\n", snapshot.PVWatts)
}

// handleHealth 處理 /health 請求
func (m *MetricsCollector) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// handleReady 處理 /ready 請求
func (m *MetricsCollector) handleReady(w http.ResponseWriter, r *http.Request) {
	if m.monitor == nil || m.monitor.State() != MonitorStateRunning {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
