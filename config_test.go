package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModbusTCPDefaultPort, cfg.GX.Port)
	assert.Equal(t, uint8(100), cfg.Devices.System)
	assert.Equal(t, uint8(227), cfg.Devices.Inverter)
	assert.Equal(t, uint8(225), cfg.Devices.Battery)
	assert.Equal(t, uint8(32), cfg.Devices.Grid)
	assert.Len(t, cfg.Devices.MPPTs, 2)
	assert.Equal(t, time.Second, cfg.Poll.Interval)
	assert.True(t, cfg.TSV.Enabled)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "missing host",
			modify: func(c *Config) {
				c.GX.Host = ""
			},
			wantErr: true,
		},
		{
			name: "invalid port - too low",
			modify: func(c *Config) {
				c.GX.Port = 0
			},
			wantErr: true,
		},
		{
			name: "invalid port - too high",
			modify: func(c *Config) {
				c.GX.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "zero read timeout",
			modify: func(c *Config) {
				c.GX.ReadTimeout = 0
			},
			wantErr: true,
		},
		{
			name: "zero poll interval",
			modify: func(c *Config) {
				c.Poll.Interval = 0
			},
			wantErr: true,
		},
		{
			name: "backoff max below min",
			modify: func(c *Config) {
				c.Poll.BackoffMin = 10 * time.Second
				c.Poll.BackoffMax = time.Second
			},
			wantErr: true,
		},
		{
			name: "tsv enabled without path",
			modify: func(c *Config) {
				c.TSV.Enabled = true
				c.TSV.Path = ""
			},
			wantErr: true,
		},
		{
			name: "invalid metrics port",
			modify: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = -1
			},
			wantErr: true,
		},
		{
			name: "metrics disabled ignores port",
			modify: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.Port = -1
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	// 建立暫存目錄
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	// 儲存配置
	cfg := DefaultConfig()
	cfg.GX.Host = "10.0.0.5"
	cfg.GX.Port = 5020
	cfg.Poll.Interval = 5 * time.Second

	err := cfg.SaveConfig(configPath)
	require.NoError(t, err)

	// 確認檔案存在
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	// 載入配置
	loadedCfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, cfg.GX.Host, loadedCfg.GX.Host)
	assert.Equal(t, cfg.GX.Port, loadedCfg.GX.Port)
	assert.Equal(t, cfg.Poll.Interval, loadedCfg.Poll.Interval)
	assert.Equal(t, cfg.Devices.Battery, loadedCfg.Devices.Battery)
}
