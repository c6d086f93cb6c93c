package shuffle

import "fmt"

// CancelPartitionRequest tells the producer the consumer no longer
// wants data on this channel; the producer should release any
// resources it holds for it and stop sending.
type CancelPartitionRequest struct {
	ReceiverID ChannelID
}

func (m *CancelPartitionRequest) ID() byte { return MsgCancelPartitionRequest }

func (m *CancelPartitionRequest) Len() int { return idLength }

func (m *CancelPartitionRequest) EncodeBody(out []byte) int {
	return m.ReceiverID.Put(out)
}

func decodeCancelPartitionRequest(body []byte) (Message, error) {
	recv, ok := ReadChannelID(body)
	if !ok {
		return nil, fmt.Errorf("cancelpartitionrequest: truncated receiver id")
	}
	return &CancelPartitionRequest{ReceiverID: recv}, nil
}

func (m *CancelPartitionRequest) String() string {
	return fmt.Sprintf("CancelPartitionRequest{receiver:%v}", m.ReceiverID)
}
