package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Client Modbus TCP 客戶端。
// 持有一條連線，同一時間只允許一個未完成的請求，
// 交易編號為連線範圍的狀態，不跨 Client 共享。
type Client struct {
	mu sync.Mutex

	transport *Transport
	txn       TransactionCounter

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// ClientOption Client 配置選項
type ClientOption func(*Client)

// WithReadTimeout 設定讀取逾時
func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.readTimeout = d
	}
}

// WithWriteTimeout 設定寫入逾時
func WithWriteTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.writeTimeout = d
	}
}

// NewClient 建立新的客戶端，需呼叫 Connect 後才能使用
func NewClient(host string, port int, connectTimeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		transport:    NewTransport(host, port, connectTimeout),
		readTimeout:  time.Second,
		writeTimeout: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect 建立與設備的連線
func (c *Client) Connect(ctx context.Context) error {
	return c.transport.Connect(ctx)
}

// Close 關閉連線，可重複呼叫
func (c *Client) Close() error {
	return c.transport.Close()
}

// State 取得連線狀態
func (c *Client) State() ConnState {
	return c.transport.State()
}

// ReadHoldingRegisters 讀取保持暫存器 (FC 03)，回傳 quantity 個 16 位元暫存器值
func (c *Client) ReadHoldingRegisters(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return c.readRegisters(FuncCodeReadHoldingRegisters, unitID, address, quantity)
}

// ReadInputRegisters 讀取輸入暫存器 (FC 04)，回傳 quantity 個 16 位元暫存器值
func (c *Client) ReadInputRegisters(unitID uint8, address, quantity uint16) ([]uint16, error) {
	return c.readRegisters(FuncCodeReadInputRegisters, unitID, address, quantity)
}

func (c *Client) readRegisters(funcCode uint8, unitID uint8, address, quantity uint16) ([]uint16, error) {
	if quantity < 1 || quantity > MaxRegistersPerRead {
		return nil, &ValidationError{Reason: fmt.Sprintf("讀取數量必須介於 1 到 %d，收到 %d", MaxRegistersPerRead, quantity)}
	}

	req := requestFrame{
		UnitID:   unitID,
		Function: funcCode,
		Address:  address,
		Quantity: quantity,
	}

	resp, err := c.roundTrip(&req, c.readTimeout)
	if err != nil {
		return nil, err
	}

	// 回應本體: 位元組數 (1) + 每個暫存器 2 位元組
	if len(resp.Data) < 1 {
		return nil, &ProtocolError{Reason: "讀取回應缺少位元組數欄位"}
	}
	byteCount := int(resp.Data[0])
	if byteCount != 2*int(quantity) || len(resp.Data) != 1+byteCount {
		return nil, &ProtocolError{Reason: fmt.Sprintf("讀取回應位元組數不符: 宣告 %d，期望 %d，實際 %d",
			byteCount, 2*quantity, len(resp.Data)-1)}
	}

	return BytesToRegisters(resp.Data[1:]), nil
}

// WriteSingleRegister 寫入單一暫存器 (FC 06)，成功時驗證回應回聲
func (c *Client) WriteSingleRegister(unitID uint8, address, value uint16) error {
	req := requestFrame{
		UnitID:   unitID,
		Function: FuncCodeWriteSingleRegister,
		Address:  address,
		Values:   []uint16{value},
	}

	resp, err := c.roundTrip(&req, c.writeTimeout)
	if err != nil {
		return err
	}

	if len(resp.Data) != 4 {
		return &ProtocolError{Reason: fmt.Sprintf("寫入回應長度不符: 期望 4 位元組，收到 %d", len(resp.Data))}
	}
	echoAddr := binary.BigEndian.Uint16(resp.Data[0:2])
	echoValue := binary.BigEndian.Uint16(resp.Data[2:4])
	if echoAddr != address || echoValue != value {
		return &ProtocolError{Reason: fmt.Sprintf("寫入回聲不符: 位址 %d/%d，值 %d/%d",
			address, echoAddr, value, echoValue)}
	}

	return nil
}

// WriteMultipleRegisters 寫入多個暫存器 (FC 16)，成功時驗證回應回聲
func (c *Client) WriteMultipleRegisters(unitID uint8, address uint16, values []uint16) error {
	if len(values) < 1 || len(values) > MaxRegistersPerWrite {
		return &ValidationError{Reason: fmt.Sprintf("寫入數量必須介於 1 到 %d，收到 %d", MaxRegistersPerWrite, len(values))}
	}

	req := requestFrame{
		UnitID:   unitID,
		Function: FuncCodeWriteMultipleRegisters,
		Address:  address,
		Quantity: uint16(len(values)),
		Values:   values,
	}

	resp, err := c.roundTrip(&req, c.writeTimeout)
	if err != nil {
		return err
	}

	if len(resp.Data) != 4 {
		return &ProtocolError{Reason: fmt.Sprintf("寫入回應長度不符: 期望 4 位元組，收到 %d", len(resp.Data))}
	}
	echoAddr := binary.BigEndian.Uint16(resp.Data[0:2])
	echoQuantity := binary.BigEndian.Uint16(resp.Data[2:4])
	if echoAddr != address || echoQuantity != uint16(len(values)) {
		return &ProtocolError{Reason: fmt.Sprintf("寫入回聲不符: 位址 %d/%d，數量 %d/%d",
			address, echoAddr, len(values), echoQuantity)}
	}

	return nil
}

// roundTrip 執行一次同步的請求/回應往返:
// 編碼、送出、在期限內等待交易編號匹配的回應，並檢查異常旗標。
// 過期交易編號的回應直接丟棄，不視為錯誤。
func (c *Client) roundTrip(req *requestFrame, timeout time.Duration) (*responseFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req.TransactionID = c.txn.NextID()

	adu, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}

	if err := c.transport.Send(adu); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	for {
		buf, err := c.transport.Receive(deadline)
		if err != nil {
			return nil, err
		}

		resp, err := decodeResponse(buf)
		if err != nil {
			return nil, err
		}

		if err := validateResponse(req, resp); err != nil {
			if errors.Is(err, errStaleResponse) {
				continue
			}
			return nil, err
		}

		if resp.IsException() {
			return nil, decodeException(resp)
		}

		return resp, nil
	}
}
