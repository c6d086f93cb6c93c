package shuffle

import "encoding/binary"
import "fmt"

// TaskEventRequest carries an application-defined, already-serialized
// event between producer and consumer. This package never interprets
// Event's bytes; serializing and deserializing the event's concrete
// type is the embedder's concern.
type TaskEventRequest struct {
	Event      []byte
	Partition  PartitionID
	ReceiverID ChannelID
}

func (m *TaskEventRequest) ID() byte { return MsgTaskEventRequest }

func (m *TaskEventRequest) Len() int {
	return 4 + len(m.Event) + 2*idLength + idLength
}

func (m *TaskEventRequest) EncodeBody(out []byte) int {
	binary.BigEndian.PutUint32(out[0:4], uint32(len(m.Event)))
	n := 4 + copy(out[4:], m.Event)
	n += m.Partition.Put(out[n:])
	n += m.ReceiverID.Put(out[n:])
	return n
}

func decodeTaskEventRequest(body []byte) (Message, error) {
	m := &TaskEventRequest{}
	if len(body) < 4 {
		return nil, fmt.Errorf("taskeventrequest: truncated event length")
	}
	ln := int(binary.BigEndian.Uint32(body[0:4]))
	n := 4
	if ln < 0 || len(body) < n+ln {
		return nil, fmt.Errorf("taskeventrequest: truncated event")
	}
	m.Event = append([]byte(nil), body[n:n+ln]...)
	n += ln

	partition, ok := ReadPartitionID(body[n:])
	if !ok {
		return nil, fmt.Errorf("taskeventrequest: truncated partition id")
	}
	m.Partition = partition
	n += 2 * idLength

	if len(body) < n+idLength {
		return nil, fmt.Errorf("taskeventrequest: truncated receiver id")
	}
	recv, _ := ReadChannelID(body[n:])
	m.ReceiverID = recv
	return m, nil
}

func (m *TaskEventRequest) String() string {
	return fmt.Sprintf("TaskEventRequest{partition:%v receiver:%v bytes:%d}",
		m.Partition, m.ReceiverID, len(m.Event))
}
