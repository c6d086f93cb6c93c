package shuffle

import "encoding/binary"
import "fmt"

// SegmentId asks the producer to resume (or start) sending from the
// named segment on a given subpartition, used when a channel's data is
// spread across externally addressable segments rather than one
// contiguous stream. Segment must be strictly positive.
type SegmentId struct {
	SubpartitionID int32
	Segment        int32
	ReceiverID     ChannelID
}

func (m *SegmentId) ID() byte { return MsgSegmentId }

func (m *SegmentId) Len() int { return 4 + 4 + idLength }

func (m *SegmentId) EncodeBody(out []byte) int {
	binary.BigEndian.PutUint32(out[0:4], uint32(m.SubpartitionID))
	binary.BigEndian.PutUint32(out[4:8], uint32(m.Segment))
	return 8 + m.ReceiverID.Put(out[8:])
}

func decodeSegmentId(body []byte) (Message, error) {
	if len(body) < 8+idLength {
		return nil, fmt.Errorf("segmentid: truncated body")
	}
	subpartition := int32(binary.BigEndian.Uint32(body[0:4]))
	segment := int32(binary.BigEndian.Uint32(body[4:8]))
	if segment <= 0 {
		return nil, fmt.Errorf("segmentid: segment id must be positive, got %d", segment)
	}
	recv, _ := ReadChannelID(body[8:])
	return &SegmentId{SubpartitionID: subpartition, Segment: segment, ReceiverID: recv}, nil
}

func (m *SegmentId) String() string {
	return fmt.Sprintf("SegmentId{receiver:%v subpartition:%d segment:%d}", m.ReceiverID, m.SubpartitionID, m.Segment)
}
