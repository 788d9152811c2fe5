package main

// GXDevice 透過 Cerbo GX 存取單一設備的基底。
// 各設備模組持有自己的暫存器位址與縮放因子，
// 客戶端本身不解讀暫存器內容。
type GXDevice struct {
	client *Client
	unitID uint8
}

// NewGXDevice 建立設備基底
func NewGXDevice(client *Client, unitID uint8) GXDevice {
	return GXDevice{client: client, unitID: unitID}
}

// UnitID 取得設備的 Unit ID
func (d *GXDevice) UnitID() uint8 {
	return d.unitID
}

// ReadRegisters 讀取連續的保持暫存器
func (d *GXDevice) ReadRegisters(address, quantity uint16) ([]uint16, error) {
	return d.client.ReadHoldingRegisters(d.unitID, address, quantity)
}

// ReadUint16 讀取單一無符號暫存器
func (d *GXDevice) ReadUint16(address uint16) (uint16, error) {
	regs, err := d.ReadRegisters(address, 1)
	if err != nil {
		return 0, err
	}
	return regs[0], nil
}

// ReadInt16 讀取單一有符號暫存器
func (d *GXDevice) ReadInt16(address uint16) (int16, error) {
	v, err := d.ReadUint16(address)
	if err != nil {
		return 0, err
	}
	return Int16FromWord(v), nil
}

// ReadInt32 讀取兩個連續暫存器組成的有符號 32 位元值 (高位字在前)
func (d *GXDevice) ReadInt32(address uint16) (int32, error) {
	regs, err := d.ReadRegisters(address, 2)
	if err != nil {
		return 0, err
	}
	return Int32FromWords(regs[0], regs[1]), nil
}

// WriteUint16 寫入單一無符號暫存器
func (d *GXDevice) WriteUint16(address, value uint16) error {
	return d.client.WriteSingleRegister(d.unitID, address, value)
}

// WriteInt16 寫入單一有符號暫存器
func (d *GXDevice) WriteInt16(address uint16, value int16) error {
	return d.client.WriteSingleRegister(d.unitID, address, WordFromInt16(value))
}

// WriteRegisters 寫入連續的保持暫存器
func (d *GXDevice) WriteRegisters(address uint16, values []uint16) error {
	return d.client.WriteMultipleRegisters(d.unitID, address, values)
}
