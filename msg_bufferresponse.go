package shuffle

import "encoding/binary"
import "fmt"

// BufferResponse carries one buffer or event from a producer to a
// consumer. Buffer is attached out-of-band: EncodeBody writes only the
// header fields below, never the payload bytes, so the payload can be
// written to the wire without being copied into the header's buffer.
type BufferResponse struct {
	ReceiverID       ChannelID
	SubpartitionID   int32
	SequenceNumber   int32
	Backlog          int32
	Buffer           *Buffer
}

func (m *BufferResponse) ID() byte { return MsgBufferResponse }

// IsBuffer delegates to the attached Buffer's DataType, distinguishing
// a record-bearing buffer from an event for callers that route the two
// differently (see fillBuffer's pooled-vs-unpooled allocation split).
func (m *BufferResponse) IsBuffer() bool {
	return m.Buffer != nil && m.Buffer.DataType.IsBuffer()
}

func (m *BufferResponse) Payload() *Buffer { return m.Buffer }

// Len returns the length of the header fields only: receiver id (16),
// subpartition id (4), number of partial buffers (4), sequence number
// (4), backlog (4), data type (1), is-compressed (1), buffer size (4),
// and 4 bytes per partial buffer size. The payload bytes themselves
// are not included; see DataCarrier.
func (m *BufferResponse) Len() int {
	n := idLength + 4 + 4 + 4 + 4 + 1 + 1 + 4
	if m.Buffer != nil {
		n += 4 * len(m.Buffer.PartialSizes())
	}
	return n
}

func (m *BufferResponse) EncodeBody(out []byte) int {
	n := m.ReceiverID.Put(out)
	binary.BigEndian.PutUint32(out[n:n+4], uint32(m.SubpartitionID))
	n += 4

	var partials []int32
	if m.Buffer != nil {
		partials = m.Buffer.PartialSizes()
	}
	binary.BigEndian.PutUint32(out[n:n+4], uint32(len(partials)))
	n += 4

	binary.BigEndian.PutUint32(out[n:n+4], uint32(m.SequenceNumber))
	n += 4
	binary.BigEndian.PutUint32(out[n:n+4], uint32(m.Backlog))
	n += 4

	var dt DataType
	var compressed bool
	var size uint32
	if m.Buffer != nil {
		dt = m.Buffer.DataType
		compressed = m.Buffer.IsCompressed
		size = m.Buffer.Size()
	}
	out[n] = byte(dt)
	n++
	if compressed {
		out[n] = 1
	} else {
		out[n] = 0
	}
	n++
	binary.BigEndian.PutUint32(out[n:n+4], size)
	n += 4

	for _, sz := range partials {
		binary.BigEndian.PutUint32(out[n:n+4], uint32(sz))
		n += 4
	}
	return n
}

func decodeBufferResponse(body []byte) (Message, error) {
	const fixed = idLength + 4 + 4 + 4 + 4 + 1 + 1 + 4
	if len(body) < fixed {
		return nil, fmt.Errorf("bufferresponse: truncated header")
	}
	m := &BufferResponse{}
	n := 0
	recv, _ := ReadChannelID(body[n:])
	m.ReceiverID = recv
	n += idLength
	m.SubpartitionID = int32(binary.BigEndian.Uint32(body[n : n+4]))
	n += 4
	numPartial := int(binary.BigEndian.Uint32(body[n : n+4]))
	n += 4
	m.SequenceNumber = int32(binary.BigEndian.Uint32(body[n : n+4]))
	n += 4
	m.Backlog = int32(binary.BigEndian.Uint32(body[n : n+4]))
	n += 4
	dt := DataType(body[n])
	n++
	compressed := body[n] != 0
	n++
	size := binary.BigEndian.Uint32(body[n : n+4])
	n += 4

	if len(body) < n+4*numPartial {
		return nil, fmt.Errorf("bufferresponse: truncated partial sizes")
	}
	partials := make([]int32, numPartial)
	for i := 0; i < numPartial; i++ {
		partials[i] = int32(binary.BigEndian.Uint32(body[n : n+4]))
		n += 4
	}

	// The payload buffer itself is allocated and attached by the frame
	// decoder, which has access to the Allocator; here we stash the
	// declared size/type/partials on an otherwise-empty Buffer so the
	// frame decoder knows how much to read and how to shape it.
	m.Buffer = &Buffer{DataType: dt, IsCompressed: compressed, size: size}
	if numPartial > 0 {
		m.Buffer.Components = make([]*Buffer, numPartial)
		for i, sz := range partials {
			m.Buffer.Components[i] = &Buffer{DataType: dt, IsCompressed: compressed, size: uint32(sz)}
		}
	}
	return m, nil
}

func (m *BufferResponse) String() string {
	return fmt.Sprintf("BufferResponse{receiver:%v subpartition:%d seq:%d backlog:%d}",
		m.ReceiverID, m.SubpartitionID, m.SequenceNumber, m.Backlog)
}
