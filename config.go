package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config 全域配置
type Config struct {
	GX      GXConfig      `json:"gx" mapstructure:"gx"`
	Devices DevicesConfig `json:"devices" mapstructure:"devices"`
	Poll    PollConfig    `json:"poll" mapstructure:"poll"`
	TSV     TSVConfig     `json:"tsv" mapstructure:"tsv"`
	Display DisplayConfig `json:"display" mapstructure:"display"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// GXConfig GX 閘道器連線配置
type GXConfig struct {
	Host           string        `json:"host" mapstructure:"host"`
	Port           int           `json:"port" mapstructure:"port"`
	ConnectTimeout time.Duration `json:"connect_timeout" mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
}

// DevicesConfig 各裝置的 Unit ID 配置
type DevicesConfig struct {
	System   uint8      `json:"system" mapstructure:"system"`
	Inverter uint8      `json:"inverter" mapstructure:"inverter"`
	Battery  uint8      `json:"battery" mapstructure:"battery"`
	Grid     uint8      `json:"grid" mapstructure:"grid"`
	MPPTs    []MPPTSpec `json:"mppts" mapstructure:"mppts"`
}

// MPPTSpec 單台太陽能充電器
type MPPTSpec struct {
	UnitID uint8  `json:"unit_id" mapstructure:"unit_id"`
	Name   string `json:"name" mapstructure:"name"`
}

// PollConfig 輪詢配置
type PollConfig struct {
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
	BackoffMin time.Duration `json:"backoff_min" mapstructure:"backoff_min"`
	BackoffMax time.Duration `json:"backoff_max" mapstructure:"backoff_max"`
}

// TSVConfig 數據記錄配置
type TSVConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// DisplayConfig 終端顯示配置
type DisplayConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	InPlace bool `json:"in_place" mapstructure:"in_place"`
}

// LoggingConfig 日誌配置
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	Format     string `json:"format" mapstructure:"format"`
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// MetricsConfig 指標配置
type MetricsConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	Port     int    `json:"port" mapstructure:"port"`
}

// DefaultConfig 返回預設配置
func DefaultConfig() *Config {
	return &Config{
		GX: GXConfig{
			Host:           "192.168.169.55",
			Port:           ModbusTCPDefaultPort,
			ConnectTimeout: 2 * time.Second,
			ReadTimeout:    1 * time.Second,
			WriteTimeout:   1 * time.Second,
		},
		Devices: DevicesConfig{
			System:   100,
			Inverter: 227,
			Battery:  225,
			Grid:     32,
			MPPTs: []MPPTSpec{
				{UnitID: 100, Name: "250/70"},
				{UnitID: 1, Name: "250/100"},
			},
		},
		Poll: PollConfig{
			Interval:   1 * time.Second,
			BackoffMin: 1 * time.Second,
			BackoffMax: 30 * time.Second,
		},
		TSV: TSVConfig{
			Enabled: true,
			Path:    "Log.tsv",
		},
		Display: DisplayConfig{
			Enabled: true,
			InPlace: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
			Port:     9090,
		},
	}
}

// LoadConfig 載入配置檔
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/essmon/")
		viper.AddConfigPath("$HOME/.essmon/")
	}

	// 環境變數覆蓋
	viper.SetEnvPrefix("ESSMON")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("讀取配置檔失敗: %w", err)
		}
		// 配置檔不存在，使用預設值
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置驗證失敗: %w", err)
	}

	return cfg, nil
}

// Validate 驗證配置
func (c *Config) Validate() error {
	if c.GX.Host == "" {
		return fmt.Errorf("必須指定 GX 主機位址")
	}

	if c.GX.Port < 1 || c.GX.Port > 65535 {
		return fmt.Errorf("無效的埠號: %d", c.GX.Port)
	}

	if c.GX.ConnectTimeout <= 0 || c.GX.ReadTimeout <= 0 || c.GX.WriteTimeout <= 0 {
		return fmt.Errorf("逾時必須大於 0")
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("輪詢間隔必須大於 0")
	}

	if c.Poll.BackoffMin <= 0 || c.Poll.BackoffMax < c.Poll.BackoffMin {
		return fmt.Errorf("無效的重連退避範圍: %s - %s", c.Poll.BackoffMin, c.Poll.BackoffMax)
	}

	if c.TSV.Enabled && c.TSV.Path == "" {
		return fmt.Errorf("啟用數據記錄時必須指定檔案路徑")
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("無效的指標埠號: %d", c.Metrics.Port)
	}

	return nil
}

// SaveConfig 儲存配置到檔案
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失敗: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("寫入配置檔失敗: %w", err)
	}

	return nil
}
