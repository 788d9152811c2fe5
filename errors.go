package main

import (
	"errors"
	"fmt"
)

// 通用錯誤
var (
	// ErrNotConnected 連線尚未建立或已失效，必須重新連線
	ErrNotConnected = errors.New("尚未連線")

	// ErrTimeout 在期限內沒有收到有效回應，連線仍可繼續使用
	ErrTimeout = errors.New("等待回應逾時")

	// errStaleResponse 收到過期交易編號的回應，呼叫端應丟棄並繼續等待
	errStaleResponse = errors.New("過期的交易編號")
)

// ConnError 連線層錯誤，發生後連線狀態轉為 Disconnected
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("連線錯誤 (%s): %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// ProtocolError 協議違規 (格式錯誤、長度不符、交易或功能碼不匹配)
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("協議錯誤: %s", e.Reason)
}

// ValidationError 呼叫參數驗證失敗，在任何 I/O 發生之前回傳
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("參數驗證失敗: %s", e.Reason)
}

// DeviceError 設備回報的 Modbus 異常回應
type DeviceError struct {
	Function uint8 // 原始功能碼 (已移除異常旗標)
	Code     uint8 // 異常碼，廠商自訂碼以數值原樣保留
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("設備異常回應 (功能碼 %02X): 0x%02X - %s",
		e.Function, e.Code, exceptionMessage(e.Code))
}

// exceptionMessage 返回標準異常碼的說明文字
func exceptionMessage(code uint8) string {
	switch code {
	case ExceptionCodeIllegalFunction:
		return "非法功能碼"
	case ExceptionCodeIllegalDataAddress:
		return "非法資料位址"
	case ExceptionCodeIllegalDataValue:
		return "非法資料值"
	case ExceptionCodeSlaveDeviceFailure:
		return "從站設備故障"
	case ExceptionCodeAcknowledge:
		return "確認"
	case ExceptionCodeSlaveDeviceBusy:
		return "從站設備忙碌"
	case ExceptionCodeMemoryParityError:
		return "記憶體同位錯誤"
	case ExceptionCodeGatewayPathUnavailable:
		return "閘道路徑不可用"
	case ExceptionCodeGatewayTargetNoResponse:
		return "閘道目標設備無回應"
	default:
		return "未知異常碼"
	}
}

// decodeException 將帶有異常旗標的回應轉換為 DeviceError
func decodeException(resp *responseFrame) error {
	if len(resp.Data) < 1 {
		return &ProtocolError{Reason: "異常回應缺少異常碼"}
	}
	return &DeviceError{
		Function: resp.Function &^ ExceptionFlag,
		Code:     resp.Data[0],
	}
}
