package main

// Modbus TCP 協議常數
const (
	// 本工具使用的 Modbus 功能碼
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeReadInputRegisters     = 0x04
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleRegisters = 0x10

	// 異常回應旗標 (功能碼最高位元)
	ExceptionFlag = 0x80

	// Modbus 異常碼
	ExceptionCodeIllegalFunction         = 0x01
	ExceptionCodeIllegalDataAddress      = 0x02
	ExceptionCodeIllegalDataValue        = 0x03
	ExceptionCodeSlaveDeviceFailure      = 0x04
	ExceptionCodeAcknowledge             = 0x05
	ExceptionCodeSlaveDeviceBusy         = 0x06
	ExceptionCodeMemoryParityError       = 0x08
	ExceptionCodeGatewayPathUnavailable  = 0x0A
	ExceptionCodeGatewayTargetNoResponse = 0x0B

	// Modbus TCP 常數
	ModbusTCPHeaderLength = 7 // MBAP Header 長度
	ModbusTCPProtocolID   = 0
	ModbusTCPMaxADULength = 260
	ModbusTCPDefaultPort  = 502

	// 單一請求的暫存器數量限制
	MaxRegistersPerRead  = 125
	MaxRegistersPerWrite = 123
)

// ConnState 連線狀態
type ConnState int32

const (
	ConnStateDisconnected ConnState = iota
	ConnStateConnected
)

func (s ConnState) String() string {
	switch s {
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
