package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// MonitorState 監控器狀態
type MonitorState int32

const (
	MonitorStateStopped MonitorState = iota
	MonitorStateStarting
	MonitorStateRunning
	MonitorStateStopping
)

func (s MonitorState) String() string {
	switch s {
	case MonitorStateStopped:
		return "stopped"
	case MonitorStateStarting:
		return "starting"
	case MonitorStateRunning:
		return "running"
	case MonitorStateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Snapshot 一輪輪詢讀到的系統狀態
type Snapshot struct {
	Timestamp time.Time

	// 電網
	GridWatts   float64
	GridL1Watts float64
	GridL2Watts float64
	GridVolts   float64
	GridL1Volts float64
	GridL2Volts float64
	GridHz      float64

	// 電池
	BatterySOC   float64
	BatteryWatts float64
	BatteryVolts float64
	BatteryAmps  float64
	BatteryTempC float64
	CellLoVolts  float64
	CellHiVolts  float64

	// 逆變器
	InverterHz float64

	// 太陽能
	PVWatts    float64
	PVYieldKWh float64

	// 負載
	ConsumptionWatts   float64
	ConsumptionL1Watts float64
	ConsumptionL2Watts float64
}

// MonitorStats 監控器統計資訊
type MonitorStats struct {
	StartTime  time.Time
	Polls      atomic.Uint64
	PollErrors atomic.Uint64
	Timeouts   atomic.Uint64
	Reconnects atomic.Uint64
}

// Monitor 輪詢 GX 裝置並輸出數據記錄與終端顯示
type Monitor struct {
	mu sync.RWMutex

	config *Config
	state  atomic.Int32
	stats  MonitorStats

	client *Client

	grid     *GridMeter
	battery  *Battery
	system   *SystemDevice
	inverter *Inverter
	mppts    []*MPPT

	tsv     *TSVWriter
	display *StatusDisplay

	gridStat *Stat
	battStat *Stat
	pvStat   *Stat

	last Snapshot
	stop context.CancelFunc

	logger *zap.Logger
}

// NewMonitor 建立新的監控器
func NewMonitor(config *Config, out io.Writer, logger *zap.Logger) *Monitor {
	client := NewClient(config.GX.Host, config.GX.Port, config.GX.ConnectTimeout,
		WithReadTimeout(config.GX.ReadTimeout),
		WithWriteTimeout(config.GX.WriteTimeout),
	)

	m := &Monitor{
		config:   config,
		client:   client,
		grid:     NewGridMeter(client, config.Devices.Grid),
		battery:  NewBattery(client, config.Devices.Battery),
		system:   NewSystemDevice(client, config.Devices.System),
		inverter: NewInverter(client, config.Devices.Inverter),
		gridStat: NewStat("grid_w"),
		battStat: NewStat("battery_w"),
		pvStat:   NewStat("pv_w"),
		logger:   logger,
	}

	for _, spec := range config.Devices.MPPTs {
		m.mppts = append(m.mppts, NewMPPT(client, spec.UnitID, spec.Name))
	}

	if config.Display.Enabled {
		m.display = NewStatusDisplay(out, config.Display.InPlace)
	}

	return m
}

// Start 啟動監控器並阻塞直到 ctx 取消
func (m *Monitor) Start(ctx context.Context) error {
	if !m.state.CompareAndSwap(int32(MonitorStateStopped), int32(MonitorStateStarting)) {
		return fmt.Errorf("監控器已經在運行中")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.mu.Lock()
	m.stop = cancel
	m.mu.Unlock()

	m.stats.StartTime = time.Now()
	m.logger.Info("正在啟動監控器",
		zap.String("host", m.config.GX.Host),
		zap.Int("port", m.config.GX.Port),
		zap.Duration("interval", m.config.Poll.Interval),
	)

	if m.config.TSV.Enabled {
		if err := m.openTSV(); err != nil {
			m.state.Store(int32(MonitorStateStopped))
			return fmt.Errorf("開啟數據記錄失敗: %w", err)
		}
	}

	if err := m.connect(ctx); err != nil {
		m.closeTSV()
		m.state.Store(int32(MonitorStateStopped))
		return err
	}

	m.state.Store(int32(MonitorStateRunning))
	m.logger.Info("監控器啟動完成")

	err := m.run(ctx)

	m.state.Store(int32(MonitorStateStopping))
	m.client.Close()
	m.closeTSV()
	m.state.Store(int32(MonitorStateStopped))
	m.logger.Info("監控器已停止")

	return err
}

// run 輪詢主迴圈
func (m *Monitor) run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.Poll.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		snap, err := m.poll()
		m.stats.Polls.Add(1)
		if err != nil {
			m.stats.PollErrors.Add(1)
			m.handlePollError(ctx, err)
			continue
		}

		m.mu.Lock()
		m.last = *snap
		m.mu.Unlock()

		m.accumulate(snap)

		if m.tsv != nil {
			m.logRow(snap)
		}
		if m.display != nil {
			m.display.Render(snap)
		}
	}
}

// poll 依序讀取所有裝置，組出一份快照
func (m *Monitor) poll() (*Snapshot, error) {
	snap := &Snapshot{Timestamp: time.Now()}

	total, l1, l2, err := m.grid.PowerWatts()
	if err != nil {
		return nil, fmt.Errorf("讀取電網功率失敗: %w", err)
	}
	snap.GridWatts, snap.GridL1Watts, snap.GridL2Watts = total, l1, l2

	_, vl1, vl2, err := m.grid.Voltage()
	if err != nil {
		return nil, fmt.Errorf("讀取電網電壓失敗: %w", err)
	}
	snap.GridL1Volts, snap.GridL2Volts = vl1, vl2
	snap.GridVolts = (vl1 + vl2) / 2

	hz, err := m.grid.FrequencyHz()
	if err != nil {
		return nil, fmt.Errorf("讀取電網頻率失敗: %w", err)
	}
	snap.GridHz = hz

	soc, err := m.battery.StateOfCharge()
	if err != nil {
		return nil, fmt.Errorf("讀取電池電量失敗: %w", err)
	}
	snap.BatterySOC = soc

	volts, err := m.battery.VoltageVolts()
	if err != nil {
		return nil, fmt.Errorf("讀取電池電壓失敗: %w", err)
	}
	snap.BatteryVolts = volts

	amps, err := m.battery.CurrentAmps()
	if err != nil {
		return nil, fmt.Errorf("讀取電池電流失敗: %w", err)
	}
	snap.BatteryAmps = amps

	tempC, err := m.battery.TemperatureC()
	if err != nil {
		return nil, fmt.Errorf("讀取電池溫度失敗: %w", err)
	}
	snap.BatteryTempC = tempC

	lo, hi, err := m.battery.CellVoltages()
	if err != nil {
		return nil, fmt.Errorf("讀取單體電壓失敗: %w", err)
	}
	snap.CellLoVolts, snap.CellHiVolts = lo, hi

	dcW, err := m.system.DCBatteryWatts()
	if err != nil {
		return nil, fmt.Errorf("讀取電池功率失敗: %w", err)
	}
	snap.BatteryWatts = dcW

	invHz, err := m.inverter.OutputFrequencyHz()
	if err != nil {
		return nil, fmt.Errorf("讀取逆變器頻率失敗: %w", err)
	}
	snap.InverterHz = invHz

	pvW, err := m.system.DCPVPowerWatts()
	if err != nil {
		return nil, fmt.Errorf("讀取太陽能功率失敗: %w", err)
	}
	snap.PVWatts = pvW

	for _, mppt := range m.mppts {
		kwh, err := mppt.YieldTodayKWh()
		if err != nil {
			return nil, fmt.Errorf("讀取 MPPT %s 發電量失敗: %w", mppt.Name, err)
		}
		snap.PVYieldKWh += kwh
	}

	ctotal, cl1, cl2, err := m.system.ACConsumptionWatts()
	if err != nil {
		return nil, fmt.Errorf("讀取負載功率失敗: %w", err)
	}
	snap.ConsumptionWatts = ctotal
	snap.ConsumptionL1Watts, snap.ConsumptionL2Watts = cl1, cl2

	return snap, nil
}

// statSummaryEvery 每累計多少輪輪詢輸出一次統計摘要
const statSummaryEvery = 60

// accumulate 累計功率統計，週期性輸出摘要後歸零
func (m *Monitor) accumulate(s *Snapshot) {
	m.gridStat.Add(s.GridWatts)
	m.battStat.Add(s.BatteryWatts)
	m.pvStat.Add(s.PVWatts)

	if m.gridStat.Count < statSummaryEvery {
		return
	}

	m.logger.Info("功率統計摘要",
		zap.Int("samples", m.gridStat.Count),
		zap.String("grid_w", m.gridStat.MinMeanMaxString("%.0f", "W")),
		zap.String("battery_w", m.battStat.MinMeanMaxString("%.0f", "W")),
		zap.String("pv_w", m.pvStat.MinMeanMaxString("%.0f", "W")),
	)

	m.gridStat.Clear()
	m.battStat.Clear()
	m.pvStat.Clear()
}

// handlePollError 區分逾時與連線錯誤。逾時保留連線繼續輪詢，
// 連線錯誤則以指數退避重連。
func (m *Monitor) handlePollError(ctx context.Context, err error) {
	if errors.Is(err, ErrTimeout) {
		m.stats.Timeouts.Add(1)
		m.logger.Warn("輪詢逾時", zap.Error(err))
		return
	}

	var connErr *ConnError
	if !errors.As(err, &connErr) {
		m.logger.Warn("輪詢失敗", zap.Error(err))
		return
	}

	m.logger.Warn("連線中斷，正在重連", zap.Error(err))
	m.client.Close()

	backoff := m.config.Poll.BackoffMin
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		m.stats.Reconnects.Add(1)
		if err := m.client.Connect(ctx); err == nil {
			m.logger.Info("重連成功")
			return
		} else {
			m.logger.Warn("重連失敗", zap.Duration("backoff", backoff), zap.Error(err))
		}

		backoff *= 2
		if backoff > m.config.Poll.BackoffMax {
			backoff = m.config.Poll.BackoffMax
		}
	}
}

// connect 首次連線，失敗時同樣以退避重試直到 ctx 取消
func (m *Monitor) connect(ctx context.Context) error {
	backoff := m.config.Poll.BackoffMin
	for {
		err := m.client.Connect(ctx)
		if err == nil {
			return nil
		}

		m.logger.Warn("連線失敗", zap.Duration("backoff", backoff), zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("連線 %s:%d 失敗: %w", m.config.GX.Host, m.config.GX.Port, err)
		case <-time.After(backoff):
		}

		m.stats.Reconnects.Add(1)
		backoff *= 2
		if backoff > m.config.Poll.BackoffMax {
			backoff = m.config.Poll.BackoffMax
		}
	}
}

// openTSV 建立數據記錄欄位並開啟檔案
func (m *Monitor) openTSV() error {
	w := NewTSVWriter(m.config.TSV.Path)
	w.AddColumn("GridW", "%.0f")
	w.AddColumn("GridL1W", "%.0f")
	w.AddColumn("GridL2W", "%.0f")
	w.AddColumn("GridV", "%.1f")
	w.AddColumn("GridHz", "%.2f")
	w.AddColumn("BattSOC", "%.1f")
	w.AddColumn("BattW", "%.0f")
	w.AddColumn("BattV", "%.2f")
	w.AddColumn("BattA", "%.1f")
	w.AddColumn("BattTempC", "%.1f")
	w.AddColumn("CellLoV", "%.2f")
	w.AddColumn("CellHiV", "%.2f")
	w.AddColumn("InvHz", "%.2f")
	w.AddColumn("PVW", "%.0f")
	w.AddColumn("PVkWh", "%.1f")
	w.AddColumn("LoadW", "%.0f")

	created, err := w.CreateOrUpdate()
	if err != nil {
		return err
	}

	if created {
		m.logger.Info("建立數據記錄檔", zap.String("path", m.config.TSV.Path))
	} else {
		m.logger.Info("續寫數據記錄檔", zap.String("path", m.config.TSV.Path))
	}

	m.tsv = w
	return nil
}

// logRow 將一份快照寫入數據記錄
func (m *Monitor) logRow(s *Snapshot) {
	m.tsv.SetValue("GridW", s.GridWatts)
	m.tsv.SetValue("GridL1W", s.GridL1Watts)
	m.tsv.SetValue("GridL2W", s.GridL2Watts)
	m.tsv.SetValue("GridV", s.GridVolts)
	m.tsv.SetValue("GridHz", s.GridHz)
	m.tsv.SetValue("BattSOC", s.BatterySOC)
	m.tsv.SetValue("BattW", s.BatteryWatts)
	m.tsv.SetValue("BattV", s.BatteryVolts)
	m.tsv.SetValue("BattA", s.BatteryAmps)
	m.tsv.SetValue("BattTempC", s.BatteryTempC)
	m.tsv.SetValue("CellLoV", s.CellLoVolts)
	m.tsv.SetValue("CellHiV", s.CellHiVolts)
	m.tsv.SetValue("InvHz", s.InverterHz)
	m.tsv.SetValue("PVW", s.PVWatts)
	m.tsv.SetValue("PVkWh", s.PVYieldKWh)
	m.tsv.SetValue("LoadW", s.ConsumptionWatts)

	if err := m.tsv.WriteRow(s.Timestamp); err != nil {
		m.logger.Warn("寫入數據記錄失敗", zap.Error(err))
	}
}

func (m *Monitor) closeTSV() {
	if m.tsv != nil {
		if err := m.tsv.Close(); err != nil {
			m.logger.Warn("關閉數據記錄失敗", zap.Error(err))
		}
		m.tsv = nil
	}
}

// State 取得監控器狀態
func (m *Monitor) State() MonitorState {
	return MonitorState(m.state.Load())
}

// Stop 終止輪詢迴圈，Start 會在清理完成後返回
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.stop
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// LastSnapshot 取得最近一次成功輪詢的快照
func (m *Monitor) LastSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}
