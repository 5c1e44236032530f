package rcon

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Packet types of the RCON protocol. Auth responses arrive as type 2 and
// command responses as type 0; only the request id is inspected here.
const (
	packetAuth    int32 = 3
	packetCommand int32 = 2
)

const (
	// headerSize covers the request id and type fields.
	headerSize = 8
	// padSize covers the two NUL bytes terminating a packet.
	padSize = 2
	// maxPayloadSize guards against nonsense length prefixes.
	maxPayloadSize = 4096

	// DefaultTimeout bounds each read and write on the connection.
	DefaultTimeout = 5 * time.Second
)

var (
	// ErrAuthFailed is returned when the server rejects the password.
	ErrAuthFailed = errors.New("rcon authentication failed")

	errPacketTooLarge = errors.New("rcon packet too large")
	errPacketTooSmall = errors.New("rcon packet too small")
	errUnexpectedID   = errors.New("rcon response id mismatch")
)

// Client is a minimal RCON console client. It is not safe for
// concurrent use; the protocol itself is strictly request/response.
type Client struct {
	conn      net.Conn
	timeout   time.Duration
	requestID int32
}

// Dial connects to the RCON endpoint and authenticates.
func Dial(ctx context.Context, address, password string) (*Client, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial rcon: %w", err)
	}

	client := &Client{
		conn:    conn,
		timeout: DefaultTimeout,
	}

	if err = client.authenticate(password); err != nil {
		_ = conn.Close()

		return nil, err
	}

	return client, nil
}

// Command executes a console command and returns the server's response body.
func (c *Client) Command(command string) (string, error) {
	id, err := c.writePacket(packetCommand, []byte(command))
	if err != nil {
		return "", err
	}

	respID, payload, err := c.readPacket()
	if err != nil {
		return "", err
	}

	// The server echoes our request id; a mismatch means the stream is
	// desynchronized and the connection should be discarded.
	if respID != id {
		return "", errUnexpectedID
	}

	return string(payload), nil
}

// Close terminates the RCON session.
func (c *Client) Close() error {
	return c.conn.Close()
}

// authenticate performs the password handshake.
// A response id of -1 means the password was rejected.
func (c *Client) authenticate(password string) error {
	if _, err := c.writePacket(packetAuth, []byte(password)); err != nil {
		return err
	}

	id, _, err := c.readPacket()
	if err != nil {
		return err
	}

	// Some servers send an empty response packet before the auth response.
	if id == 0 {
		id, _, err = c.readPacket()
		if err != nil {
			return err
		}
	}

	if id == -1 {
		return ErrAuthFailed
	}

	return nil
}

// writePacket frames and sends one packet: little-endian int32 length,
// int32 request id, int32 type, payload, two NUL bytes.
func (c *Client) writePacket(packetType int32, payload []byte) (int32, error) {
	c.requestID++
	id := c.requestID

	var buf bytes.Buffer

	length := int32(headerSize + len(payload) + padSize)
	for _, field := range []int32{length, id, packetType} {
		if err := binary.Write(&buf, binary.LittleEndian, field); err != nil {
			return 0, err
		}
	}

	buf.Write(payload)
	buf.Write([]byte{0, 0})

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}

	if _, err := c.conn.Write(buf.Bytes()); err != nil {
		return 0, fmt.Errorf("write rcon packet: %w", err)
	}

	return id, nil
}

// readPacket receives one packet and returns its request id and payload.
func (c *Client) readPacket() (int32, []byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, nil, err
	}

	var length int32
	if err := binary.Read(c.conn, binary.LittleEndian, &length); err != nil {
		return 0, nil, fmt.Errorf("read rcon length: %w", err)
	}

	if length < headerSize+padSize {
		return 0, nil, errPacketTooSmall
	}

	if length > headerSize+padSize+maxPayloadSize {
		return 0, nil, errPacketTooLarge
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return 0, nil, fmt.Errorf("read rcon body: %w", err)
	}

	id := int32(binary.LittleEndian.Uint32(body[0:4]))
	payload := body[headerSize : length-padSize]

	return id, payload, nil
}
