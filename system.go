package main

// SystemDevice Cerbo GX 系統總覽設備，匯整全系統的功率流與 ESS 設定
type SystemDevice struct {
	GXDevice
}

// NewSystemDevice 建立系統設備
func NewSystemDevice(client *Client, unitID uint8) *SystemDevice {
	return &SystemDevice{GXDevice: NewGXDevice(client, unitID)}
}

// ACGridWatts 回傳 AC 電網輸入功率 (總和, L1, L2)
// /Ac/Grid/L1/Power (820), /Ac/Grid/L2/Power (821)
func (s *SystemDevice) ACGridWatts() (total, l1, l2 float64, err error) {
	regs, err := s.ReadRegisters(820, 2)
	if err != nil {
		return 0, 0, 0, err
	}
	l1 = float64(Int16FromWord(regs[0]))
	l2 = float64(Int16FromWord(regs[1]))
	return l1 + l2, l1, l2, nil
}

// ACConsumptionWatts 回傳 AC 負載功率 (總和, L1, L2)
// /Ac/Consumption/L1/Power (817), /Ac/Consumption/L2/Power (818)
func (s *SystemDevice) ACConsumptionWatts() (total, l1, l2 float64, err error) {
	regs, err := s.ReadRegisters(817, 2)
	if err != nil {
		return 0, 0, 0, err
	}
	l1 = float64(regs[0])
	l2 = float64(regs[1])
	return l1 + l2, l1, l2, nil
}

// DCBatteryWatts 回傳電池 DC 功率，放電為負
// /Dc/Battery/Power (842)
func (s *SystemDevice) DCBatteryWatts() (float64, error) {
	v, err := s.ReadInt16(842)
	if err != nil {
		return 0, err
	}
	return float64(v), nil
}

// StateOfCharge 回傳系統電池電量百分比
// /Dc/Battery/Soc (843)
func (s *SystemDevice) StateOfCharge() (float64, error) {
	v, err := s.ReadUint16(843)
	if err != nil {
		return 0, err
	}
	return float64(v), nil
}

// DCPVPowerWatts 回傳 DC 耦合太陽能功率
// /Dc/Pv/Power (850)
func (s *SystemDevice) DCPVPowerWatts() (float64, error) {
	v, err := s.ReadUint16(850)
	if err != nil {
		return 0, err
	}
	return float64(v), nil
}

// ESSMinStateOfCharge 回傳 ESS 最低電量設定
// /Settings/Ess/MinimumSocLimit (2901)，縮放 0.1
func (s *SystemDevice) ESSMinStateOfCharge() (float64, error) {
	v, err := s.ReadUint16(2901)
	if err != nil {
		return 0, err
	}
	return float64(v) / 10.0, nil
}

// ESSSettings 回傳 ESS 設定區塊的原始暫存器值 (2700 起連續 11 個)
func (s *SystemDevice) ESSSettings() ([]uint16, error) {
	return s.ReadRegisters(2700, 11)
}

// SetGridSetpointWatts 設定電網功率目標值
// /Settings/Ess/AcPowerSetpoint (2700)
func (s *SystemDevice) SetGridSetpointWatts(watts int16) error {
	return s.WriteInt16(2700, watts)
}

// SetInverterPowerLimitWatts 設定逆變器輸出功率上限
// /Settings/Ess/MaxDischargePower (2704)，縮放 10
func (s *SystemDevice) SetInverterPowerLimitWatts(watts float64) error {
	return s.WriteUint16(2704, uint16(0.5+watts/10.0))
}

// InverterPowerLimitWatts 回傳逆變器輸出功率上限
func (s *SystemDevice) InverterPowerLimitWatts() (float64, error) {
	v, err := s.ReadUint16(2704)
	if err != nil {
		return 0, err
	}
	return 10.0 * float64(v), nil
}

// SetMaxChargeCurrentAmps 設定 DVCC 最大充電電流
// /Settings/SystemSetup/MaxChargeCurrent (2705)
func (s *SystemDevice) SetMaxChargeCurrentAmps(amps int16) error {
	return s.WriteInt16(2705, amps)
}

// SetMaxFeedInPowerWatts 設定最大饋網功率
// /Settings/CGwacs/MaxFeedInPower (2706)，縮放 0.01
func (s *SystemDevice) SetMaxFeedInPowerWatts(watts float64) error {
	return s.WriteInt16(2706, int16(0.5+watts/100.0))
}

// SetFeedExcessPVToGrid 設定是否將多餘的 DC 太陽能饋入電網
// /Settings/CGwacs/OvervoltageFeedIn (2707)
func (s *SystemDevice) SetFeedExcessPVToGrid(enabled bool) error {
	v := uint16(0)
	if enabled {
		v = 1
	}
	return s.WriteUint16(2707, v)
}
