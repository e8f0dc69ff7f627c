package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/enet/compress"
	"github.com/opd-ai/enet/crypto"
	"github.com/opd-ai/enet/packet"
)

// maxFrameSize bounds one length-prefixed frame on a TCP stream.
const maxFrameSize = 1 << 20

var errFrameSize = errors.New("frame length out of range")

// message is one chat line as carried on the wire:
// [Int64 unix millis][String text], compressed then sealed.
type message struct {
	Sent time.Time
	Text string
}

// codec turns messages into transport payloads and back.
type codec struct {
	alg    compress.Algorithm
	cipher *crypto.Cipher
}

func (c codec) encode(m message) ([]byte, error) {
	w := packet.NewWriterSize(10 + len(m.Text))
	w.WriteInt64(m.Sent.UnixMilli())
	if err := w.WriteString(m.Text); err != nil {
		return nil, err
	}

	data, err := compress.Compress(c.alg, w.Bytes())
	if err != nil {
		return nil, err
	}
	if c.cipher == nil {
		return data, nil
	}
	return c.cipher.Encrypt(data)
}

func (c codec) decode(data []byte) (message, error) {
	var err error
	if c.cipher != nil {
		if data, err = c.cipher.Decrypt(data); err != nil {
			return message{}, err
		}
	}
	if data, err = compress.Decompress(c.alg, data); err != nil {
		return message{}, err
	}

	var m message
	err = packet.Decode(data, func(r *packet.Reader) {
		m.Sent = time.UnixMilli(r.ReadInt64())
		m.Text = r.ReadString()
	})
	return m, err
}

func (m message) String() string {
	return fmt.Sprintf("[%s] %s", m.Sent.Format("15:04:05"), m.Text)
}

// frame prefixes payload with its Int32 length for stream transports.
func frame(payload []byte) []byte {
	w := packet.NewWriterSize(4 + len(payload))
	w.WriteInt32(int32(len(payload)))
	w.WriteBytes(payload)
	return w.Bytes()
}

// splitter reassembles frames from arbitrary stream chunks.
type splitter struct {
	buf []byte
}

// feed appends chunk and returns every frame completed by it. A frame
// length outside [0, maxFrameSize] discards the buffered stream.
func (s *splitter) feed(chunk []byte) ([][]byte, error) {
	s.buf = append(s.buf, chunk...)

	var frames [][]byte
	for len(s.buf) >= 4 {
		r := packet.NewReader(s.buf)
		n := int(r.ReadInt32())
		if n < 0 || n > maxFrameSize {
			s.buf = nil
			return frames, errFrameSize
		}
		if r.Remaining() < n {
			break
		}
		frames = append(frames, r.ReadBytes(n))
		s.buf = s.buf[4+n:]
	}
	if len(s.buf) == 0 {
		s.buf = nil
	}
	return frames, nil
}
