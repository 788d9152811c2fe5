package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Timestamp:          time.Date(2026, 8, 30, 14, 30, 0, 0, time.Local),
		GridWatts:          300,
		GridL1Watts:        800,
		GridL2Watts:        -500,
		GridVolts:          120.1,
		GridL1Volts:        120.3,
		GridL2Volts:        119.8,
		GridHz:             59.98,
		BatterySOC:         87.2,
		BatteryWatts:       -600,
		BatteryVolts:       53.45,
		BatteryAmps:        -12.5,
		BatteryTempC:       28.5,
		CellLoVolts:        3.32,
		CellHiVolts:        3.35,
		InverterHz:         59.99,
		PVWatts:            1500,
		PVYieldKWh:         12.3,
		ConsumptionWatts:   730,
		ConsumptionL1Watts: 320,
		ConsumptionL2Watts: 410,
	}
}

func TestStatusDisplay_Render(t *testing.T) {
	var buf bytes.Buffer
	d := NewStatusDisplay(&buf, false)

	d.Render(testSnapshot())
	out := buf.String()

	assert.Contains(t, out, "2026-08-30 14:30:00")
	assert.Contains(t, out, "電網")
	assert.Contains(t, out, "電池")
	assert.Contains(t, out, "太陽能")
	assert.Contains(t, out, "負載")
	assert.Contains(t, out, "87.2 %")
	assert.Contains(t, out, "59.98 Hz")
	assert.Contains(t, out, "59.99 Hz")
	assert.Contains(t, out, "逆變器")
	assert.Contains(t, out, "12.3 kWh")

	// 非原地模式不使用清除畫面控制碼
	assert.NotContains(t, out, ansiClear)
	assert.NotContains(t, out, ansiHome)
}

func TestStatusDisplay_InPlace(t *testing.T) {
	var buf bytes.Buffer
	d := NewStatusDisplay(&buf, true)

	snap := testSnapshot()
	d.Render(snap)
	d.Render(snap)
	out := buf.String()

	// 只有首次繪製清除整個畫面，之後回到左上角重繪
	assert.Equal(t, 1, strings.Count(out, ansiClear))
	assert.Equal(t, 2, strings.Count(out, ansiHome))
}

func TestPowerColor(t *testing.T) {
	assert.Equal(t, ansiGreen, powerColor(100))
	assert.Equal(t, ansiYellow, powerColor(-100))
	assert.Equal(t, ansiNorm, powerColor(0))
}

func TestSocColor(t *testing.T) {
	assert.Equal(t, ansiRed, socColor(15))
	assert.Equal(t, ansiYellow, socColor(35))
	assert.Equal(t, ansiGreen, socColor(80))
}
