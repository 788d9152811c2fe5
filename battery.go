package main

// Battery CAN-bus BMS 電池組 (例如 EG4-LL 機架電池)
type Battery struct {
	GXDevice
}

// NewBattery 建立電池設備
func NewBattery(client *Client, unitID uint8) *Battery {
	return &Battery{GXDevice: NewGXDevice(client, unitID)}
}

// VoltageVolts 回傳電池電壓
// /Dc/0/Voltage (259)，縮放 0.01
func (b *Battery) VoltageVolts() (float64, error) {
	v, err := b.ReadInt16(259)
	if err != nil {
		return 0, err
	}
	return 0.01 * float64(v), nil
}

// CurrentAmps 回傳電池電流，放電為負
// /Dc/0/Current (261)，縮放 0.1
func (b *Battery) CurrentAmps() (float64, error) {
	v, err := b.ReadInt16(261)
	if err != nil {
		return 0, err
	}
	return 0.1 * float64(v), nil
}

// TemperatureC 回傳電池溫度
// /Dc/0/Temperature (262)，縮放 0.1
func (b *Battery) TemperatureC() (float64, error) {
	v, err := b.ReadInt16(262)
	if err != nil {
		return 0, err
	}
	return 0.1 * float64(v), nil
}

// StateOfCharge 回傳電池電量百分比
// /Soc (266)，縮放 0.1
func (b *Battery) StateOfCharge() (float64, error) {
	v, err := b.ReadInt16(266)
	if err != nil {
		return 0, err
	}
	return 0.1 * float64(v), nil
}

// MaxChargeCurrentAmps 回傳 BMS 允許的最大充電電流
// /Info/MaxChargeCurrent (307)，縮放 0.1
func (b *Battery) MaxChargeCurrentAmps() (float64, error) {
	v, err := b.ReadUint16(307)
	if err != nil {
		return 0, err
	}
	return 0.1 * float64(v), nil
}

// CellVoltages 回傳最低與最高單體電壓
// /System/MinCellVoltage (1290), /System/MaxCellVoltage (1291)，縮放 0.01
func (b *Battery) CellVoltages() (lo, hi float64, err error) {
	regs, err := b.ReadRegisters(1290, 2)
	if err != nil {
		return 0, 0, err
	}
	return 0.01 * float64(regs[0]), 0.01 * float64(regs[1]), nil
}

// ModuleStatus 回傳模組狀態 (上線數, 阻擋充電數, 阻擋放電數)
// /System/NrOfModulesOnline (1303) 起連續三個暫存器
func (b *Battery) ModuleStatus() (online, blockingCharge, blockingDischarge uint16, err error) {
	regs, err := b.ReadRegisters(1303, 3)
	if err != nil {
		return 0, 0, 0, err
	}
	return regs[0], regs[1], regs[2], nil
}
