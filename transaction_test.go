package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionCounter_Sequence(t *testing.T) {
	var counter TransactionCounter

	assert.Equal(t, uint16(0), counter.NextID())
	assert.Equal(t, uint16(1), counter.NextID())
	assert.Equal(t, uint16(2), counter.NextID())
}

func TestTransactionCounter_Wraparound(t *testing.T) {
	counter := TransactionCounter{next: 65535}

	assert.Equal(t, uint16(65535), counter.NextID())
	assert.Equal(t, uint16(0), counter.NextID(), "超過 65535 後應回繞至 0")
	assert.Equal(t, uint16(1), counter.NextID())
}

func TestTransactionCounter_FullCycle(t *testing.T) {
	var counter TransactionCounter
	seen := make(map[uint16]bool, 65536)

	// 一整圈內每個編號只出現一次
	for i := 0; i < 65536; i++ {
		id := counter.NextID()
		assert.False(t, seen[id], "編號 %d 重複出現", id)
		seen[id] = true
	}

	assert.Equal(t, uint16(0), counter.NextID())
}

func TestValidateResponse_Match(t *testing.T) {
	req := &requestFrame{TransactionID: 10, UnitID: 100, Function: FuncCodeReadHoldingRegisters}
	resp := &responseFrame{TransactionID: 10, UnitID: 100, Function: FuncCodeReadHoldingRegisters}

	assert.NoError(t, validateResponse(req, resp))
}

func TestValidateResponse_ExceptionEcho(t *testing.T) {
	req := &requestFrame{TransactionID: 10, UnitID: 100, Function: FuncCodeReadHoldingRegisters}
	resp := &responseFrame{TransactionID: 10, UnitID: 100, Function: FuncCodeReadHoldingRegisters | ExceptionFlag}

	// 異常回應的功能碼帶最高位元旗標，仍視為對應本次請求
	assert.NoError(t, validateResponse(req, resp))
}

func TestValidateResponse_StaleTransactionID(t *testing.T) {
	req := &requestFrame{TransactionID: 10, UnitID: 100, Function: FuncCodeReadHoldingRegisters}
	resp := &responseFrame{TransactionID: 9, UnitID: 100, Function: FuncCodeReadHoldingRegisters}

	err := validateResponse(req, resp)
	assert.True(t, errors.Is(err, errStaleResponse), "過期的交易編號應可被呼叫端辨識並丟棄")
}

func TestValidateResponse_UnitIDMismatch(t *testing.T) {
	req := &requestFrame{TransactionID: 10, UnitID: 100, Function: FuncCodeReadHoldingRegisters}
	resp := &responseFrame{TransactionID: 10, UnitID: 225, Function: FuncCodeReadHoldingRegisters}

	var protoErr *ProtocolError
	assert.ErrorAs(t, validateResponse(req, resp), &protoErr)
}

func TestValidateResponse_FunctionMismatch(t *testing.T) {
	req := &requestFrame{TransactionID: 10, UnitID: 100, Function: FuncCodeReadHoldingRegisters}
	resp := &responseFrame{TransactionID: 10, UnitID: 100, Function: FuncCodeReadInputRegisters}

	var protoErr *ProtocolError
	assert.ErrorAs(t, validateResponse(req, resp), &protoErr)
}
