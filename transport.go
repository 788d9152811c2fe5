package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"
)

// Transport 負責單一 TCP 連線上的可靠位元組傳輸。
// 逾時不會改變連線狀態，socket 層級的 I/O 錯誤會使連線失效。
type Transport struct {
	host           string
	port           int
	connectTimeout time.Duration

	conn  net.Conn
	state atomic.Int32
}

// NewTransport 建立尚未連線的 Transport
func NewTransport(host string, port int, connectTimeout time.Duration) *Transport {
	return &Transport{
		host:           host,
		port:           port,
		connectTimeout: connectTimeout,
	}
}

// Connect 建立 TCP 連線。已連線時沒有任何效果。
func (t *Transport) Connect(ctx context.Context) error {
	if t.State() == ConnStateConnected {
		return nil
	}

	dialer := net.Dialer{Timeout: t.connectTimeout}
	addr := net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &ConnError{Op: "connect", Err: err}
	}

	t.conn = conn
	t.state.Store(int32(ConnStateConnected))
	return nil
}

// Send 將整個緩衝區寫入連線
func (t *Transport) Send(buf []byte) error {
	if t.State() != ConnStateConnected {
		return &ConnError{Op: "send", Err: ErrNotConnected}
	}

	if _, err := t.conn.Write(buf); err != nil {
		t.invalidate()
		return &ConnError{Op: "send", Err: err}
	}
	return nil
}

// Receive 讀取一個完整的 ADU，或在期限到達時回傳逾時錯誤。
// 逾時後連線仍可使用，其他 I/O 錯誤會使連線失效。
func (t *Transport) Receive(deadline time.Time) ([]byte, error) {
	if t.State() != ConnStateConnected {
		return nil, &ConnError{Op: "receive", Err: ErrNotConnected}
	}

	if err := t.conn.SetReadDeadline(deadline); err != nil {
		t.invalidate()
		return nil, &ConnError{Op: "receive", Err: err}
	}

	header := make([]byte, ModbusTCPHeaderLength)
	if n, err := io.ReadFull(t.conn, header); err != nil {
		return nil, t.receiveError(err, n)
	}

	// 長度欄位包含 Unit ID，剩餘本體為 length-1 位元組
	length := binary.BigEndian.Uint16(header[4:6])
	if length < 2 || int(length) > ModbusTCPMaxADULength-6 {
		t.invalidate()
		return nil, &ProtocolError{Reason: fmt.Sprintf("無效的框架長度欄位: %d", length)}
	}

	body := make([]byte, int(length)-1)
	if n, err := io.ReadFull(t.conn, body); err != nil {
		return nil, t.receiveError(err, ModbusTCPHeaderLength+n)
	}

	return append(header, body...), nil
}

// receiveError 區分逾時與連線失效。未讀到任何位元組的逾時保留連線，
// 已讀入部分框架的逾時代表串流失步，連線一併作廢。
func (t *Transport) receiveError(err error, consumed int) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		if consumed == 0 {
			return fmt.Errorf("接收回應: %w", ErrTimeout)
		}
		t.invalidate()
		return &ConnError{Op: "receive", Err: fmt.Errorf("框架接收不完整，期限內僅讀到 %d 位元組", consumed)}
	}
	t.invalidate()
	return &ConnError{Op: "receive", Err: err}
}

// Close 釋放連線，可重複呼叫
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.state.Store(int32(ConnStateDisconnected))
	return err
}

// State 取得連線狀態
func (t *Transport) State() ConnState {
	return ConnState(t.state.Load())
}

// invalidate 標記連線失效並釋放 socket
func (t *Transport) invalidate() {
	t.state.Store(int32(ConnStateDisconnected))
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}
