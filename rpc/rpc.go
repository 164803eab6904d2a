package rpc

import (
	"bytes"
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	FuncConvert = "convert"
	FuncUnits   = "units"
	FuncBalance = "balance"
	FuncMove    = "move"
)

// Packet is the request and response envelope. Body carries the msgpack
// encoded argument (requests) or result (responses).
type Packet struct {
	ID   string `msgpack:"id"`
	Func string `msgpack:"fn,omitempty"`
	Code int32  `msgpack:"code,omitempty"`
	Err  string `msgpack:"err,omitempty"`
	Body []byte `msgpack:"b,omitempty"`
}

// PacketBuffer reassembles packets from a byte stream. Bytes of a packet that
// has not fully arrived are kept for the next Feed.
type PacketBuffer struct {
	buf bytes.Buffer
}

func (pb *PacketBuffer) Feed(data []byte) ([]*Packet, error) {
	pb.buf.Write(data)

	var results []*Packet
	for pb.buf.Len() > 0 {
		r := bytes.NewReader(pb.buf.Bytes())
		dec := msgpack.NewDecoder(r)
		v := new(Packet)
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// not enough data yet
				break
			}
			pb.buf.Reset()
			return results, err
		}
		pb.buf.Next(pb.buf.Len() - r.Len())
		results = append(results, v)
	}
	return results, nil
}

func (pb *PacketBuffer) Buffered() int {
	return pb.buf.Len()
}

func encodePacket(p *Packet) ([]byte, error) {
	return msgpack.Marshal(p)
}
