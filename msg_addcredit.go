package shuffle

import "encoding/binary"
import "fmt"

// AddCredit grants a producer channel additional buffers it may send
// before waiting for more credit. Credit must be strictly positive;
// granting zero or negative credit is a contract violation the sender
// should never produce.
type AddCredit struct {
	Credit     int32
	ReceiverID ChannelID
}

func (m *AddCredit) ID() byte { return MsgAddCredit }

func (m *AddCredit) Len() int { return 4 + idLength }

func (m *AddCredit) EncodeBody(out []byte) int {
	binary.BigEndian.PutUint32(out[0:4], uint32(m.Credit))
	return 4 + m.ReceiverID.Put(out[4:])
}

func decodeAddCredit(body []byte) (Message, error) {
	if len(body) < 4+idLength {
		return nil, fmt.Errorf("addcredit: truncated body")
	}
	credit := int32(binary.BigEndian.Uint32(body[0:4]))
	if credit <= 0 {
		return nil, fmt.Errorf("addcredit: credit must be positive, got %d", credit)
	}
	recv, _ := ReadChannelID(body[4:])
	return &AddCredit{Credit: credit, ReceiverID: recv}, nil
}

func (m *AddCredit) String() string {
	return fmt.Sprintf("AddCredit{receiver:%v credit:%d}", m.ReceiverID, m.Credit)
}
