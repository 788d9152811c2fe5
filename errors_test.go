package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeException(t *testing.T) {
	resp := &responseFrame{
		TransactionID: 1,
		UnitID:        100,
		Function:      FuncCodeReadHoldingRegisters | ExceptionFlag,
		Data:          []byte{ExceptionCodeIllegalDataAddress},
	}

	err := decodeException(resp)

	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, uint8(FuncCodeReadHoldingRegisters), devErr.Function, "異常旗標應被移除")
	assert.Equal(t, uint8(ExceptionCodeIllegalDataAddress), devErr.Code)
	assert.Contains(t, devErr.Error(), "非法資料位址")
}

func TestDecodeException_VendorSpecificCode(t *testing.T) {
	resp := &responseFrame{
		Function: FuncCodeWriteSingleRegister | ExceptionFlag,
		Data:     []byte{0x7F},
	}

	err := decodeException(resp)

	// 非標準異常碼原樣保留，不視為協議錯誤
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, uint8(0x7F), devErr.Code)
	assert.Contains(t, devErr.Error(), "未知異常碼")
}

func TestDecodeException_MissingCode(t *testing.T) {
	resp := &responseFrame{
		Function: FuncCodeReadHoldingRegisters | ExceptionFlag,
		Data:     nil,
	}

	err := decodeException(resp)

	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr, "缺少異常碼的異常回應屬於協議違規")
}

func TestConnError_Unwrap(t *testing.T) {
	err := &ConnError{Op: "send", Err: ErrNotConnected}

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Contains(t, err.Error(), "send")
}
