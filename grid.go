package main

// GridMeter 電網電表 (透過 Cerbo GX 模擬的複合電表)。
// 本系統為分相 (split-phase) 配置，只處理 L1 與 L2。
type GridMeter struct {
	GXDevice
}

// NewGridMeter 建立電網電表設備
func NewGridMeter(client *Client, unitID uint8) *GridMeter {
	return &GridMeter{GXDevice: NewGXDevice(client, unitID)}
}

// PowerWatts 回傳電網功率 (總和, L1, L2)
// /Ac/L1/Power (2600), /Ac/L2/Power (2601)
func (g *GridMeter) PowerWatts() (total, l1, l2 float64, err error) {
	regs, err := g.ReadRegisters(2600, 2)
	if err != nil {
		return 0, 0, 0, err
	}
	l1 = float64(Int16FromWord(regs[0]))
	l2 = float64(Int16FromWord(regs[1]))
	return l1 + l2, l1, l2, nil
}

// PowerFactor 回傳電網功率因數 (L1, L2)
// /Ac/L1/PowerFactor (2645), /Ac/L2/PowerFactor (2646)
func (g *GridMeter) PowerFactor() (l1, l2 float64, err error) {
	regs, err := g.ReadRegisters(2645, 2)
	if err != nil {
		return 0, 0, err
	}
	l1 = 0.001 * float64(Int16FromWord(regs[0]))
	l2 = 0.001 * float64(Int16FromWord(regs[1]))
	return l1, l2, nil
}

// Voltage 回傳電網電壓 (總和, L1, L2)
// /Ac/L1/Voltage (2616), /Ac/L2/Voltage (2618)
func (g *GridMeter) Voltage() (total, l1, l2 float64, err error) {
	regs, err := g.ReadRegisters(2616, 3)
	if err != nil {
		return 0, 0, 0, err
	}
	l1 = 0.1 * float64(Int16FromWord(regs[0]))
	l2 = 0.1 * float64(Int16FromWord(regs[2]))
	return l1 + l2, l1, l2, nil
}

// CurrentAmps 回傳電網電流 (總和, L1, L2)
// /Ac/L1/Current (2617), /Ac/L2/Current (2619)
func (g *GridMeter) CurrentAmps() (total, l1, l2 float64, err error) {
	regs, err := g.ReadRegisters(2617, 3)
	if err != nil {
		return 0, 0, 0, err
	}
	l1 = 0.1 * float64(Int16FromWord(regs[0]))
	l2 = 0.1 * float64(Int16FromWord(regs[2]))
	return l1 + l2, l1, l2, nil
}

// FrequencyHz 回傳電網頻率
// /Ac/Frequency (2644)
func (g *GridMeter) FrequencyHz() (float64, error) {
	v, err := g.ReadUint16(2644)
	if err != nil {
		return 0, err
	}
	return float64(v) / 100.0, nil
}
