package main

import (
	"fmt"
	"io"
)

// ANSI 顏色與游標控制
const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
	ansiNorm   = "\x1b[0m"

	ansiHome  = "\x1b[H"
	ansiClear = "\x1b[2J"
)

// StatusDisplay ANSI 終端狀態顯示器。
// inPlace 為真時每次更新會回到畫面左上角原地重繪。
type StatusDisplay struct {
	out     io.Writer
	inPlace bool
	drawn   bool
}

// NewStatusDisplay 建立狀態顯示器
func NewStatusDisplay(out io.Writer, inPlace bool) *StatusDisplay {
	return &StatusDisplay{out: out, inPlace: inPlace}
}

// Render 繪製一次完整的系統狀態
func (d *StatusDisplay) Render(s *Snapshot) {
	if d.inPlace {
		if !d.drawn {
			fmt.Fprint(d.out, ansiClear)
			d.drawn = true
		}
		fmt.Fprint(d.out, ansiHome)
	}

	fmt.Fprintf(d.out, "%sESS 系統狀態  %s%s\n\n",
		ansiCyan, s.Timestamp.Format("2006-01-02 15:04:05"), ansiNorm)

	d.section("電網")
	d.row("功率", fmt.Sprintf("%s%6.0f W%s  (L1 %5.0f  L2 %5.0f)",
		powerColor(s.GridWatts), s.GridWatts, ansiNorm, s.GridL1Watts, s.GridL2Watts))
	d.row("電壓", fmt.Sprintf("%6.1f V  (L1 %5.1f  L2 %5.1f)", s.GridVolts, s.GridL1Volts, s.GridL2Volts))
	d.row("頻率", fmt.Sprintf("%6.2f Hz", s.GridHz))

	d.section("電池")
	d.row("電量", fmt.Sprintf("%s%5.1f %%%s", socColor(s.BatterySOC), s.BatterySOC, ansiNorm))
	d.row("功率", fmt.Sprintf("%s%6.0f W%s", powerColor(s.BatteryWatts), s.BatteryWatts, ansiNorm))
	d.row("電壓", fmt.Sprintf("%6.2f V  (單體 %.2f-%.2f)", s.BatteryVolts, s.CellLoVolts, s.CellHiVolts))
	d.row("電流", fmt.Sprintf("%6.1f A", s.BatteryAmps))
	d.row("溫度", fmt.Sprintf("%6.1f C", s.BatteryTempC))

	d.section("逆變器")
	d.row("頻率", fmt.Sprintf("%6.2f Hz", s.InverterHz))

	d.section("太陽能")
	d.row("功率", fmt.Sprintf("%s%6.0f W%s", pvColor(s.PVWatts), s.PVWatts, ansiNorm))
	d.row("今日", fmt.Sprintf("%6.1f kWh", s.PVYieldKWh))

	d.section("負載")
	d.row("功率", fmt.Sprintf("%6.0f W  (L1 %5.0f  L2 %5.0f)",
		s.ConsumptionWatts, s.ConsumptionL1Watts, s.ConsumptionL2Watts))

	fmt.Fprintln(d.out)
}

func (d *StatusDisplay) section(name string) {
	fmt.Fprintf(d.out, "%s--- %s ---%s\n", ansiCyan, name, ansiNorm)
}

func (d *StatusDisplay) row(label, value string) {
	fmt.Fprintf(d.out, "  %-6s %s\n", label, value)
}

// powerColor 依功率方向著色: 輸入為綠，輸出為黃
func powerColor(watts float64) string {
	switch {
	case watts > 0:
		return ansiGreen
	case watts < 0:
		return ansiYellow
	default:
		return ansiNorm
	}
}

// socColor 依電量高低著色
func socColor(soc float64) string {
	switch {
	case soc < 20:
		return ansiRed
	case soc < 50:
		return ansiYellow
	default:
		return ansiGreen
	}
}

// pvColor 太陽能發電中顯示為綠
func pvColor(watts float64) string {
	if watts > 0 {
		return ansiGreen
	}
	return ansiNorm
}
