package shuffle

import "encoding/binary"
import "fmt"

// PartitionRequest opens a channel: the consumer asks a producer for
// a subset of one result partition's subpartitions, identifying the
// channel it wants responses delivered on and how much buffer credit
// it is initially granting.
type PartitionRequest struct {
	Partition      PartitionID
	Subpartitions  SubpartitionIndexSet
	ReceiverID     ChannelID
	InitialCredit  int32
}

func (m *PartitionRequest) ID() byte { return MsgPartitionRequest }

func (m *PartitionRequest) Len() int {
	return 2*idLength + m.Subpartitions.Len() + idLength + 4
}

func (m *PartitionRequest) EncodeBody(out []byte) int {
	n := m.Partition.Put(out)
	n += m.Subpartitions.Put(out[n:])
	n += m.ReceiverID.Put(out[n:])
	binary.BigEndian.PutUint32(out[n:n+4], uint32(m.InitialCredit))
	n += 4
	return n
}

func decodePartitionRequest(body []byte) (Message, error) {
	m := &PartitionRequest{}
	partition, ok := ReadPartitionID(body)
	if !ok {
		return nil, fmt.Errorf("partitionrequest: truncated partition id")
	}
	m.Partition = partition
	n := 2 * idLength

	subparts, consumed, err := ReadSubpartitionIndexSet(body[n:])
	if err != nil {
		return nil, fmt.Errorf("partitionrequest: %w", err)
	}
	m.Subpartitions = subparts
	n += consumed

	if len(body) < n+idLength+4 {
		return nil, fmt.Errorf("partitionrequest: truncated tail")
	}
	recv, _ := ReadChannelID(body[n:])
	m.ReceiverID = recv
	n += idLength
	m.InitialCredit = int32(binary.BigEndian.Uint32(body[n : n+4]))

	if m.InitialCredit <= 0 {
		return nil, fmt.Errorf("partitionrequest: initial credit must be positive, got %d", m.InitialCredit)
	}
	return m, nil
}

func (m *PartitionRequest) String() string {
	return fmt.Sprintf("PartitionRequest{partition:%v %v receiver:%v credit:%d}",
		m.Partition, m.Subpartitions, m.ReceiverID, m.InitialCredit)
}
