package shuffle

import "encoding/binary"
import "fmt"

// BacklogAnnouncement tells the consumer how many buffers are already
// queued up on the producer side for this channel, so the consumer can
// grant enough credit in one round trip instead of trickling it out
// one buffer at a time. Backlog must not be negative.
type BacklogAnnouncement struct {
	Backlog    int32
	ReceiverID ChannelID
}

func (m *BacklogAnnouncement) ID() byte { return MsgBacklogAnnouncement }

func (m *BacklogAnnouncement) Len() int { return 4 + idLength }

func (m *BacklogAnnouncement) EncodeBody(out []byte) int {
	binary.BigEndian.PutUint32(out[0:4], uint32(m.Backlog))
	return 4 + m.ReceiverID.Put(out[4:])
}

func decodeBacklogAnnouncement(body []byte) (Message, error) {
	if len(body) < 4+idLength {
		return nil, fmt.Errorf("backlogannouncement: truncated body")
	}
	backlog := int32(binary.BigEndian.Uint32(body[0:4]))
	if backlog < 0 {
		return nil, fmt.Errorf("backlogannouncement: backlog must not be negative, got %d", backlog)
	}
	recv, _ := ReadChannelID(body[4:])
	return &BacklogAnnouncement{Backlog: backlog, ReceiverID: recv}, nil
}

func (m *BacklogAnnouncement) String() string {
	return fmt.Sprintf("BacklogAnnouncement{receiver:%v backlog:%d}", m.ReceiverID, m.Backlog)
}
