package main

import "fmt"

// TransactionCounter 交易編號產生器。
// 每個 Client 持有自己的計數器，多條連線之間不需要同步。
type TransactionCounter struct {
	next uint16
}

// NextID 回傳當前編號並遞增，超過 65535 時回繞至 0
func (t *TransactionCounter) NextID() uint16 {
	id := t.next
	t.next++
	return id
}

// validateResponse 驗證回應與請求的對應關係。
// 交易編號不符時回傳 errStaleResponse (呼叫端丟棄後繼續等待)；
// Unit ID 或功能碼不符則屬於協議違規。
func validateResponse(req *requestFrame, resp *responseFrame) error {
	if resp.TransactionID != req.TransactionID {
		return fmt.Errorf("%w: 期望 %d，收到 %d", errStaleResponse, req.TransactionID, resp.TransactionID)
	}

	if resp.UnitID != req.UnitID {
		return &ProtocolError{Reason: fmt.Sprintf("Unit ID 不符: 期望 %d，收到 %d", req.UnitID, resp.UnitID)}
	}

	if resp.Function != req.Function && resp.Function != req.Function|ExceptionFlag {
		return &ProtocolError{Reason: fmt.Sprintf("功能碼不符: 期望 0x%02X，收到 0x%02X", req.Function, resp.Function)}
	}

	return nil
}
