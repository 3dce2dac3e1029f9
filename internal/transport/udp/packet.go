// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

/*
Packet layout (big-endian):

	|<- 4 ->|<--- 8 --->|<- 4 ->|<- 2 ->|<------ N ------>|
	+-------+-----------+-------+-------+-----------------+
	|  seq  | timestamp |column | count |   magnitudes    |
	|uint32 |   int64   |uint32 |uint16 |   N x uint8     |
	+-------+-----------+-------+-------+-----------------+

seq increases by one per packet sent by a Sender, timestamp is nanoseconds
since the Unix epoch and count is the number of magnitude bytes.
*/

// HeaderSize is the number of bytes before the magnitudes.
const HeaderSize = 4 + 8 + 4 + 2

// MaxBins is the largest column a packet can carry.
const MaxBins = math.MaxUint16

var ErrShortPacket = errors.New("udp: packet too short")

// Packet is one decoded column.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Column    uint32
	Data      []byte
}

type packetHeader struct {
	Sequence  uint32
	Timestamp int64
	Column    uint32
	Count     uint16
}

// encode appends p to buf, which is reset first.
func (p Packet) encode(buf *bytes.Buffer) error {
	if len(p.Data) > MaxBins {
		return fmt.Errorf("udp: column has %d bins, at most %d fit in a packet", len(p.Data), MaxBins)
	}
	buf.Reset()
	h := packetHeader{
		Sequence:  p.Sequence,
		Timestamp: p.Timestamp,
		Column:    p.Column,
		Count:     uint16(len(p.Data)),
	}
	if err := binary.Write(buf, binary.BigEndian, h); err != nil {
		return err
	}
	buf.Write(p.Data)
	return nil
}

// Decode parses a packet. Data aliases b.
func Decode(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, ErrShortPacket
	}
	var h packetHeader
	if err := binary.Read(bytes.NewReader(b[:HeaderSize]), binary.BigEndian, &h); err != nil {
		return Packet{}, err
	}
	if len(b)-HeaderSize < int(h.Count) {
		return Packet{}, fmt.Errorf("%w: %d magnitude bytes, header says %d", ErrShortPacket, len(b)-HeaderSize, h.Count)
	}
	return Packet{
		Sequence:  h.Sequence,
		Timestamp: h.Timestamp,
		Column:    h.Column,
		Data:      b[HeaderSize : HeaderSize+int(h.Count)],
	}, nil
}
