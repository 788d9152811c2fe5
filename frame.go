package main

import (
	"encoding/binary"
	"fmt"
)

// requestFrame Modbus TCP 請求框架 (MBAP Header + PDU)
type requestFrame struct {
	TransactionID uint16
	UnitID        uint8
	Function      uint8
	Address       uint16
	Quantity      uint16   // 讀取數量，寫入多個暫存器時為 len(Values)
	Values        []uint16 // 僅寫入功能碼使用
}

// responseFrame 解碼後的 Modbus TCP 回應框架
type responseFrame struct {
	TransactionID uint16
	UnitID        uint8
	Function      uint8  // 回應功能碼，最高位元為異常旗標
	Data          []byte // 功能碼之後的原始位元組
}

// IsException 回應是否帶有異常旗標
func (f *responseFrame) IsException() bool {
	return f.Function&ExceptionFlag != 0
}

// encodeRequest 將請求框架編碼為完整的 ADU 位元組序列
func encodeRequest(f *requestFrame) ([]byte, error) {
	var pdu []byte

	switch f.Function {
	case FuncCodeReadHoldingRegisters, FuncCodeReadInputRegisters:
		pdu = make([]byte, 5)
		pdu[0] = f.Function
		binary.BigEndian.PutUint16(pdu[1:3], f.Address)
		binary.BigEndian.PutUint16(pdu[3:5], f.Quantity)

	case FuncCodeWriteSingleRegister:
		if len(f.Values) != 1 {
			return nil, &ProtocolError{Reason: fmt.Sprintf("寫入單一暫存器需要恰好 1 個值，收到 %d 個", len(f.Values))}
		}
		pdu = make([]byte, 5)
		pdu[0] = f.Function
		binary.BigEndian.PutUint16(pdu[1:3], f.Address)
		binary.BigEndian.PutUint16(pdu[3:5], f.Values[0])

	case FuncCodeWriteMultipleRegisters:
		if int(f.Quantity) != len(f.Values) {
			return nil, &ProtocolError{Reason: fmt.Sprintf("數量欄位 %d 與值個數 %d 不符", f.Quantity, len(f.Values))}
		}
		pdu = make([]byte, 6+2*len(f.Values))
		pdu[0] = f.Function
		binary.BigEndian.PutUint16(pdu[1:3], f.Address)
		binary.BigEndian.PutUint16(pdu[3:5], f.Quantity)
		pdu[5] = byte(2 * len(f.Values))
		for i, v := range f.Values {
			binary.BigEndian.PutUint16(pdu[6+2*i:], v)
		}

	default:
		return nil, &ProtocolError{Reason: fmt.Sprintf("不支援的功能碼: 0x%02X", f.Function)}
	}

	// MBAP Header: 交易編號 + 協議編號 + 長度 (Unit ID 與 PDU 的位元組數) + Unit ID
	adu := make([]byte, ModbusTCPHeaderLength+len(pdu))
	binary.BigEndian.PutUint16(adu[0:2], f.TransactionID)
	binary.BigEndian.PutUint16(adu[2:4], ModbusTCPProtocolID)
	binary.BigEndian.PutUint16(adu[4:6], uint16(1+len(pdu)))
	adu[6] = f.UnitID
	copy(adu[7:], pdu)

	return adu, nil
}

// decodeResponse 將完整的 ADU 位元組序列解碼為回應框架。
// 宣告長度與實際位元組數不符時回傳 ProtocolError。
func decodeResponse(adu []byte) (*responseFrame, error) {
	if len(adu) < ModbusTCPHeaderLength+1 {
		return nil, &ProtocolError{Reason: fmt.Sprintf("框架過短: %d 位元組", len(adu))}
	}

	protocolID := binary.BigEndian.Uint16(adu[2:4])
	if protocolID != ModbusTCPProtocolID {
		return nil, &ProtocolError{Reason: fmt.Sprintf("非預期的協議編號: %d", protocolID)}
	}

	// 長度欄位已包含 Unit ID 那一個位元組
	length := binary.BigEndian.Uint16(adu[4:6])
	if int(length) != len(adu)-6 {
		return nil, &ProtocolError{Reason: fmt.Sprintf("長度欄位 %d 與實際位元組數 %d 不符", length, len(adu)-6)}
	}
	if length < 2 {
		return nil, &ProtocolError{Reason: fmt.Sprintf("長度欄位過小: %d", length)}
	}

	return &responseFrame{
		TransactionID: binary.BigEndian.Uint16(adu[0:2]),
		UnitID:        adu[6],
		Function:      adu[7],
		Data:          adu[8:],
	}, nil
}

// decodeRequest 將請求 ADU 解碼回請求框架，與 encodeRequest 互為反函數
func decodeRequest(adu []byte) (*requestFrame, error) {
	if len(adu) < ModbusTCPHeaderLength+5 {
		return nil, &ProtocolError{Reason: fmt.Sprintf("請求框架過短: %d 位元組", len(adu))}
	}

	protocolID := binary.BigEndian.Uint16(adu[2:4])
	if protocolID != ModbusTCPProtocolID {
		return nil, &ProtocolError{Reason: fmt.Sprintf("非預期的協議編號: %d", protocolID)}
	}

	length := binary.BigEndian.Uint16(adu[4:6])
	if int(length) != len(adu)-6 {
		return nil, &ProtocolError{Reason: fmt.Sprintf("長度欄位 %d 與實際位元組數 %d 不符", length, len(adu)-6)}
	}

	f := &requestFrame{
		TransactionID: binary.BigEndian.Uint16(adu[0:2]),
		UnitID:        adu[6],
		Function:      adu[7],
		Address:       binary.BigEndian.Uint16(adu[8:10]),
	}

	switch f.Function {
	case FuncCodeReadHoldingRegisters, FuncCodeReadInputRegisters:
		f.Quantity = binary.BigEndian.Uint16(adu[10:12])

	case FuncCodeWriteSingleRegister:
		f.Values = []uint16{binary.BigEndian.Uint16(adu[10:12])}

	case FuncCodeWriteMultipleRegisters:
		f.Quantity = binary.BigEndian.Uint16(adu[10:12])
		if len(adu) < 13 {
			return nil, &ProtocolError{Reason: "寫入請求缺少位元組數欄位"}
		}
		byteCount := int(adu[12])
		if byteCount != 2*int(f.Quantity) || len(adu) != 13+byteCount {
			return nil, &ProtocolError{Reason: fmt.Sprintf("位元組數欄位 %d 與數量 %d 不符", byteCount, f.Quantity)}
		}
		f.Values = BytesToRegisters(adu[13:])

	default:
		return nil, &ProtocolError{Reason: fmt.Sprintf("不支援的功能碼: 0x%02X", f.Function)}
	}

	return f, nil
}
