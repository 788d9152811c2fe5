package main

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer 在隨機埠上接受一條連線，交由 handler 處理
func scriptedServer(t *testing.T, handler func(conn net.Conn)) (string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestTransport_SendReceive(t *testing.T) {
	response := []byte{
		0x00, 0x01, 0x00, 0x00, 0x00, 0x05,
		0x01, 0x03, 0x02, 0x00, 0x2A,
	}

	host, port := scriptedServer(t, func(conn net.Conn) {
		buf := make([]byte, 256)
		n, err := conn.Read(buf)
		if err != nil || n == 0 {
			return
		}
		conn.Write(response)
	})

	tr := NewTransport(host, port, time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	assert.Equal(t, ConnStateConnected, tr.State())

	request := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x01, 0x03, 0x00, 0x64, 0x00, 0x01}
	require.NoError(t, tr.Send(request))

	adu, err := tr.Receive(time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, response, adu)
}

func TestTransport_ReceiveTimeout(t *testing.T) {
	// 伺服器保持沉默
	host, port := scriptedServer(t, func(conn net.Conn) {
		time.Sleep(2 * time.Second)
	})

	tr := NewTransport(host, port, time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	_, err := tr.Receive(time.Now().Add(100 * time.Millisecond))
	assert.True(t, errors.Is(err, ErrTimeout), "沉默的伺服器應導致逾時錯誤")

	// 逾時後連線保持可用
	assert.Equal(t, ConnStateConnected, tr.State())
}

func TestTransport_PartialFrameTimeoutDisconnects(t *testing.T) {
	// 伺服器送出半個標頭後沉默，串流已失步
	host, port := scriptedServer(t, func(conn net.Conn) {
		conn.Write([]byte{0x00, 0x01, 0x00})
		time.Sleep(2 * time.Second)
	})

	tr := NewTransport(host, port, time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	_, err := tr.Receive(time.Now().Add(200 * time.Millisecond))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTimeout), "部分框架不應視為一般逾時")

	var connErr *ConnError
	assert.True(t, errors.As(err, &connErr), "部分框架應回報連線錯誤")
	assert.Equal(t, ConnStateDisconnected, tr.State())
}

func TestTransport_PartialBodyTimeoutDisconnects(t *testing.T) {
	// 完整標頭宣告 5 位元組本體，但只送出 1 位元組
	host, port := scriptedServer(t, func(conn net.Conn) {
		conn.Write([]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x01, 0x03})
		time.Sleep(2 * time.Second)
	})

	tr := NewTransport(host, port, time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	_, err := tr.Receive(time.Now().Add(200 * time.Millisecond))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTimeout))

	var connErr *ConnError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, ConnStateDisconnected, tr.State())
}

func TestTransport_ServerCloses(t *testing.T) {
	host, port := scriptedServer(t, func(conn net.Conn) {
		// 立即關閉連線
	})

	tr := NewTransport(host, port, time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	_, err := tr.Receive(time.Now().Add(time.Second))

	var connErr *ConnError
	assert.ErrorAs(t, err, &connErr)
	assert.Equal(t, ConnStateDisconnected, tr.State(), "socket 錯誤後連線應標記為失效")
}

func TestTransport_InvalidLengthField(t *testing.T) {
	// 長度欄位超過 ADU 上限
	host, port := scriptedServer(t, func(conn net.Conn) {
		buf := make([]byte, 256)
		conn.Read(buf)
		conn.Write([]byte{0x00, 0x01, 0x00, 0x00, 0xFF, 0xFF, 0x01})
	})

	tr := NewTransport(host, port, time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	require.NoError(t, tr.Send([]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x01, 0x03, 0x00, 0x00, 0x00, 0x01}))

	_, err := tr.Receive(time.Now().Add(time.Second))

	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr)
	assert.Equal(t, ConnStateDisconnected, tr.State())
}

func TestTransport_NotConnected(t *testing.T) {
	tr := NewTransport("127.0.0.1", 5502, time.Second)

	err := tr.Send([]byte{0x00})
	assert.True(t, errors.Is(err, ErrNotConnected))

	_, err = tr.Receive(time.Now().Add(time.Second))
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestTransport_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tr := NewTransport("127.0.0.1", port, 200*time.Millisecond)

	var connErr *ConnError
	assert.ErrorAs(t, tr.Connect(context.Background()), &connErr)
	assert.Equal(t, ConnStateDisconnected, tr.State())
}

func TestTransport_CloseIdempotent(t *testing.T) {
	host, port := scriptedServer(t, func(conn net.Conn) {
		time.Sleep(100 * time.Millisecond)
	})

	tr := NewTransport(host, port, time.Second)
	require.NoError(t, tr.Connect(context.Background()))

	assert.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())
	assert.Equal(t, ConnStateDisconnected, tr.State())
}

func TestTransport_ConnectTwice(t *testing.T) {
	host, port := scriptedServer(t, func(conn net.Conn) {
		time.Sleep(100 * time.Millisecond)
	})

	tr := NewTransport(host, port, time.Second)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	// 已連線時再次 Connect 沒有任何效果
	assert.NoError(t, tr.Connect(context.Background()))
	assert.Equal(t, ConnStateConnected, tr.State())
}
