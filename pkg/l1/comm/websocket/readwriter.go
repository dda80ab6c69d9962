// Package websocket carries L1 packets over websocket binary frames.
// drod serves them next to MQTT so browsers and tools on the same
// network can reach a controller without a broker.
package websocket

import (
	"time"

	"golang.org/x/net/websocket"
)

// ReadWriter implements PacketReadWriter, one packet per binary frame.
type ReadWriter struct {
	Conn *websocket.Conn
	// WriteTimeout bounds sending a packet, 0 for no limit.
	WriteTimeout time.Duration
}

// DefaultWriteTimeout keeps a stalled client from blocking event
// publishing.
const DefaultWriteTimeout = 5 * time.Second

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	conn.PayloadType = websocket.BinaryFrame
	return &ReadWriter{Conn: conn, WriteTimeout: DefaultWriteTimeout}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn, &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if p.WriteTimeout > 0 {
		p.Conn.SetWriteDeadline(time.Now().Add(p.WriteTimeout))
	}
	return websocket.Message.Send(p.Conn, pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.Conn.Close()
}
