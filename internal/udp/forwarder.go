// Package udp re-emits validated NMEA sentences to a UDP destination.
//
// Chartplotter and navigation apps conventionally ingest NMEA-over-UDP
// on port 10110; each datagram carries one $...*HH\r\n framed sentence.
package udp

import (
	"fmt"
	"net"
)

type Forwarder struct {
	dest string
	conn *net.UDPConn
}

func NewForwarder(dest string) (*Forwarder, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	return &Forwarder{
		dest: dest,
		conn: conn,
	}, nil
}

// Send transmits one framed sentence as a single datagram. Empty
// payloads are ignored.
func (f *Forwarder) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := f.conn.Write(payload)
	return err
}

func (f *Forwarder) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
