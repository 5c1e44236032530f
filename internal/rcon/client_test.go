package rcon

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeConsole is an in-process RCON server good for a single connection.
type fakeConsole struct {
	listener net.Listener
	password string
}

func newFakeConsole(t *testing.T, password string) *fakeConsole {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = listener.Close()
	})

	console := &fakeConsole{
		listener: listener,
		password: password,
	}

	go console.serve()

	return console
}

func (f *fakeConsole) addr() string {
	return f.listener.Addr().String()
}

func (f *fakeConsole) serve() {
	conn, err := f.listener.Accept()
	if err != nil {
		return
	}

	defer func() {
		_ = conn.Close()
	}()

	authenticated := false

	for {
		id, packetType, payload, err := readFrame(conn)
		if err != nil {
			return
		}

		switch packetType {
		case packetAuth:
			if string(payload) == f.password {
				authenticated = true

				writeFrame(conn, id, 2, nil)
			} else {
				writeFrame(conn, -1, 2, nil)
			}
		case packetCommand:
			if !authenticated {
				writeFrame(conn, -1, 0, nil)
				continue
			}

			writeFrame(conn, id, 0, append([]byte("ok: "), payload...))
		}
	}
}

func readFrame(conn net.Conn) (int32, int32, []byte, error) {
	var length int32
	if err := binary.Read(conn, binary.LittleEndian, &length); err != nil {
		return 0, 0, nil, err
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(conn, body); err != nil {
		return 0, 0, nil, err
	}

	id := int32(binary.LittleEndian.Uint32(body[0:4]))
	packetType := int32(binary.LittleEndian.Uint32(body[4:8]))

	return id, packetType, body[8 : length-2], nil
}

func writeFrame(conn net.Conn, id, packetType int32, payload []byte) {
	frame := make([]byte, 12+len(payload)+2)
	binary.LittleEndian.PutUint32(frame[0:4], uint32(8+len(payload)+2))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(id))
	binary.LittleEndian.PutUint32(frame[8:12], uint32(packetType))
	copy(frame[12:], payload)

	_, _ = conn.Write(frame)
}

// TestDialAndCommand authenticates and round-trips a command.
func TestDialAndCommand(t *testing.T) {
	t.Parallel()

	console := newFakeConsole(t, "hunter2")

	client, err := Dial(context.Background(), console.addr(), "hunter2")
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	response, err := client.Command("say hello")
	require.NoError(t, err)
	require.Equal(t, "ok: say hello", response)
}

// TestDial_WrongPassword surfaces ErrAuthFailed.
func TestDial_WrongPassword(t *testing.T) {
	t.Parallel()

	console := newFakeConsole(t, "hunter2")

	_, err := Dial(context.Background(), console.addr(), "wrong")
	require.ErrorIs(t, err, ErrAuthFailed)
}

// TestDial_NoServer fails on an unreachable endpoint.
func TestDial_NoServer(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = Dial(context.Background(), address, "hunter2")
	require.Error(t, err)
}
