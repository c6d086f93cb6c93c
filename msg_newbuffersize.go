package shuffle

import "encoding/binary"
import "fmt"

// NewBufferSize tells a producer channel to resize the buffers it
// allocates for subsequent sends, part of the adaptive-buffer-size
// ("debloating") feedback loop. BufferSize must be strictly positive.
type NewBufferSize struct {
	BufferSize int32
	ReceiverID ChannelID
}

func (m *NewBufferSize) ID() byte { return MsgNewBufferSize }

func (m *NewBufferSize) Len() int { return 4 + idLength }

func (m *NewBufferSize) EncodeBody(out []byte) int {
	binary.BigEndian.PutUint32(out[0:4], uint32(m.BufferSize))
	return 4 + m.ReceiverID.Put(out[4:])
}

func decodeNewBufferSize(body []byte) (Message, error) {
	if len(body) < 4+idLength {
		return nil, fmt.Errorf("newbuffersize: truncated body")
	}
	size := int32(binary.BigEndian.Uint32(body[0:4]))
	if size <= 0 {
		return nil, fmt.Errorf("newbuffersize: size must be positive, got %d", size)
	}
	recv, _ := ReadChannelID(body[4:])
	return &NewBufferSize{BufferSize: size, ReceiverID: recv}, nil
}

func (m *NewBufferSize) String() string {
	return fmt.Sprintf("NewBufferSize{receiver:%v size:%d}", m.ReceiverID, m.BufferSize)
}
