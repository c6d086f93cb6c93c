package shuffle

import "fmt"

// AckAllUserRecordsProcessed tells the producer that the consumer has
// finished processing every record delivered on this channel, part of
// the end-of-stream handshake that lets the producer release the
// channel's resources only once it knows nothing further is needed.
type AckAllUserRecordsProcessed struct {
	ReceiverID ChannelID
}

func (m *AckAllUserRecordsProcessed) ID() byte { return MsgAckAllUserRecordsProcessed }

func (m *AckAllUserRecordsProcessed) Len() int { return idLength }

func (m *AckAllUserRecordsProcessed) EncodeBody(out []byte) int {
	return m.ReceiverID.Put(out)
}

func decodeAckAllUserRecordsProcessed(body []byte) (Message, error) {
	recv, ok := ReadChannelID(body)
	if !ok {
		return nil, fmt.Errorf("ackallrecords: truncated receiver id")
	}
	return &AckAllUserRecordsProcessed{ReceiverID: recv}, nil
}

func (m *AckAllUserRecordsProcessed) String() string {
	return fmt.Sprintf("AckAllUserRecordsProcessed{receiver:%v}", m.ReceiverID)
}
