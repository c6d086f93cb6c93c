package shuffle

import "encoding/binary"
import "fmt"
import "io"
import "net"

// Frame layout: a 4-byte big-endian total length (the frame header
// itself plus body plus any attached payload), a 4-byte magic number
// and a 1-byte message id.
const (
	FrameHeaderLength = 9
	MagicNumber       = 0xBADC0FFE
	MaxFrameLength    = 1<<31 - 1
)

// EncodeFrame encodes a message with no attached payload into one
// contiguous frame: header, magic, id, body. Messages implementing
// DataCarrier must not be encoded with this function; use
// EncodeBufferResponseHeader and writePayload instead, so the payload
// is never copied into the header's buffer.
func EncodeFrame(msg Message) []byte {
	n := msg.Len()
	out := make([]byte, FrameHeaderLength+n)
	binary.BigEndian.PutUint32(out[0:4], uint32(FrameHeaderLength+n))
	binary.BigEndian.PutUint32(out[4:8], MagicNumber)
	out[8] = msg.ID()
	msg.EncodeBody(out[9:])
	return out
}

// EncodeBufferResponseHeader encodes m's header fields into a frame
// whose declared total length already accounts for the payload that
// will follow on the wire but is not part of this returned slice.
func EncodeBufferResponseHeader(m *BufferResponse) []byte {
	n := m.Len()
	payloadLen := 0
	if m.Buffer != nil {
		payloadLen = int(m.Buffer.Size())
	}
	out := make([]byte, FrameHeaderLength+n)
	binary.BigEndian.PutUint32(out[0:4], uint32(FrameHeaderLength+n+payloadLen))
	binary.BigEndian.PutUint32(out[4:8], MagicNumber)
	out[8] = m.ID()
	m.EncodeBody(out[9:])
	return out
}

// EncodeComposite encodes m's header and the full concatenated
// payload bytes into a single contiguous slice, used by tests that feed
// a whole BufferResponse frame to a FrameDecoder in one call. Production
// sends go through EncodeBufferResponseHeader + writePayload instead,
// so the payload is never copied.
func (m *BufferResponse) EncodeComposite() []byte {
	header := EncodeBufferResponseHeader(m)
	if m.Buffer == nil {
		return header
	}
	return append(header, m.Buffer.Bytes()...)
}

// writePayload writes buf's readable bytes to w without copying them
// into an intermediate buffer. A composite buffer is written as a
// single vectored write via net.Buffers, so its components reach the
// wire back to back without ever being concatenated in memory.
func writePayload(w io.Writer, buf *Buffer) (int64, error) {
	if buf == nil {
		return 0, nil
	}
	if buf.Components != nil {
		bufs := make(net.Buffers, len(buf.Components))
		for i, c := range buf.Components {
			bufs[i] = c.Data[:c.size]
		}
		return bufs.WriteTo(w)
	}
	n, err := w.Write(buf.Data[:buf.size])
	return int64(n), err
}

// DecodeEvent is one decoded unit handed back by FrameDecoder.Feed.
// Err is set, with Msg nil, when a single frame's body failed to
// decode (KindDecodeFailure); the stream is still healthy and
// decoding continues with the next frame.
type DecodeEvent struct {
	Msg     Message
	Channel ChannelID
	HasChan bool
	Err     error
}

// FrameDecoder is a stateful, push-style decoder: callers feed it
// arbitrary byte chunks as they arrive off a socket and it returns
// every frame it can fully assemble from what it has seen so far.
// Buffering the partial tail this way keeps decoding independent of
// how the input happened to be chunked off the wire.
type FrameDecoder struct {
	alloc Allocator
	buf   []byte
}

// NewFrameDecoder creates a decoder that allocates BufferResponse
// payloads through alloc.
func NewFrameDecoder(alloc Allocator) *FrameDecoder {
	return &FrameDecoder{alloc: alloc}
}

// Feed appends chunk to the decoder's internal buffer and returns
// every frame that is now fully available. A non-nil returned error
// is always fatal (stream corruption or an unknown message id): the
// caller must stop feeding this decoder and close the connection.
// Per-frame decode failures are reported as DecodeEvent.Err instead,
// and do not stop the stream.
func (d *FrameDecoder) Feed(chunk []byte) ([]DecodeEvent, error) {
	d.buf = append(d.buf, chunk...)

	var events []DecodeEvent
	for {
		if len(d.buf) < 4 {
			break
		}
		total := binary.BigEndian.Uint32(d.buf[0:4])
		if total < FrameHeaderLength || total > MaxFrameLength {
			return events, newProtoErr(KindStreamCorruption, nil,
				fmt.Errorf("invalid frame length %d", total))
		}
		if uint32(len(d.buf)) < total {
			break // wait for more bytes
		}

		frame := d.buf[:total]
		magic := binary.BigEndian.Uint32(frame[4:8])
		if magic != MagicNumber {
			return events, newProtoErr(KindStreamCorruption, nil,
				fmt.Errorf("bad magic number %#x", magic))
		}
		msgID := frame[8]
		body := frame[9:]

		ev, err := d.decodeOne(msgID, body)
		if err != nil {
			if pe, ok := err.(*ProtocolError); ok && pe.Kind == KindUnknownMessage {
				return events, pe
			}
			events = append(events, DecodeEvent{Err: err})
		} else {
			events = append(events, ev)
		}

		d.compact(int(total))
	}
	return events, nil
}

// compact drops the first n consumed bytes from the internal buffer,
// copying the remainder down to avoid unbounded growth across many
// Feed calls on a long-lived connection.
func (d *FrameDecoder) compact(n int) {
	rest := len(d.buf) - n
	copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}

func (d *FrameDecoder) decodeOne(msgID byte, body []byte) (DecodeEvent, error) {
	decode, ok := decodeTable[msgID]
	if !ok {
		return DecodeEvent{}, newProtoErr(KindUnknownMessage, nil,
			fmt.Errorf("unknown message id %#x", msgID))
	}

	msg, err := decode(body)
	if err != nil {
		return DecodeEvent{}, newProtoErr(KindDecodeFailure, nil, err)
	}

	if br, ok := msg.(*BufferResponse); ok {
		if err := d.fillBuffer(br, body); err != nil {
			return DecodeEvent{}, newProtoErr(KindDecodeFailure, &br.ReceiverID, err)
		}
	}

	ev := DecodeEvent{Msg: msg}
	if ch, ok := channelOf(msg); ok {
		ev.Channel, ev.HasChan = ch, true
	}
	return ev, nil
}

// fillBuffer replaces the placeholder Buffer decodeBufferResponse
// attached (carrying only declared sizes/types) with a real,
// allocator-backed Buffer holding the payload bytes that follow the
// header fields in body. placeholder.size / placeholder.Components
// describe the shape to allocate; body is the full frame body
// decodeBufferResponse was given, header fields plus payload.
func (d *FrameDecoder) fillBuffer(br *BufferResponse, body []byte) error {
	placeholder := br.Buffer
	if placeholder == nil {
		return nil
	}

	offset := idLength + 4 + 4 + 4 + 4 + 1 + 1 + 4 + 4*len(placeholder.Components)
	if len(body) < offset {
		return fmt.Errorf("bufferresponse: missing payload bytes")
	}
	payload := body[offset:]

	if len(placeholder.Components) > 0 {
		components := make([]*Buffer, len(placeholder.Components))
		recycleFilled := func(n int) {
			for _, c := range components[:n] {
				c.Recycle()
			}
		}
		off := 0
		for i, c := range placeholder.Components {
			sz := int(c.size)
			if off+sz > len(payload) {
				recycleFilled(i)
				return fmt.Errorf("bufferresponse: truncated component payload")
			}
			var buf *Buffer
			if c.DataType.IsBuffer() {
				var ok bool
				buf, ok = d.alloc.AllocatePooled(br.ReceiverID)
				if !ok {
					recycleFilled(i)
					return fmt.Errorf("bufferresponse: channel %v no longer live", br.ReceiverID)
				}
			} else {
				buf = d.alloc.AllocateUnpooled(sz, c.DataType)
			}
			copy(buf.Data, payload[off:off+sz])
			buf.size = uint32(sz)
			buf.DataType = c.DataType
			buf.IsCompressed = c.IsCompressed
			components[i] = buf
			off += sz
		}
		br.Buffer = &Buffer{Components: components, DataType: placeholder.DataType, IsCompressed: placeholder.IsCompressed}
		return nil
	}

	size := int(placeholder.size)
	if size == 0 {
		br.Buffer = nil
		return nil
	}
	if len(payload) < size {
		return fmt.Errorf("bufferresponse: truncated payload, want %d got %d", size, len(payload))
	}

	var buf *Buffer
	if placeholder.DataType.IsBuffer() {
		var ok bool
		buf, ok = d.alloc.AllocatePooled(br.ReceiverID)
		if !ok {
			br.Buffer = nil
			return nil // channel gone: not an error, caller observes a nil Buffer
		}
	} else {
		buf = d.alloc.AllocateUnpooled(size, placeholder.DataType)
	}
	copy(buf.Data, payload[:size])
	buf.size = uint32(size)
	buf.DataType = placeholder.DataType
	buf.IsCompressed = placeholder.IsCompressed
	br.Buffer = buf
	return nil
}
