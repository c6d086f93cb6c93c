package shuffle

// Message ids. A single byte is enough for this protocol's fixed,
// twelve-member catalog.
const (
	MsgBufferResponse              byte = 0
	MsgErrorResponse                    = 1
	MsgPartitionRequest                 = 2
	MsgTaskEventRequest                 = 3
	MsgCancelPartitionRequest           = 4
	MsgCloseRequest                     = 5
	MsgAddCredit                        = 6
	MsgResumeConsumption                = 7
	MsgAckAllUserRecordsProcessed       = 8
	MsgBacklogAnnouncement              = 9
	MsgNewBufferSize                    = 10
	MsgSegmentId                        = 11
)

// Message is implemented by every type in this package's catalog.
// EncodeBody and the per-id decode functions in decodeTable operate on
// the message body only, after the 9-byte frame prefix; see frame.go for the framing layer that wraps
// them. Len must return the exact encoded body length so frame
// encoding can size its buffer in one allocation.
type Message interface {
	ID() byte
	Len() int
	EncodeBody(out []byte) int
	String() string
}

// DataCarrier is implemented by message types that carry a Buffer
// payload attached out-of-band from EncodeBody, so the payload's bytes
// are never copied into the same buffer as the header fields. Only
// *BufferResponse implements this in the current catalog.
type DataCarrier interface {
	Message
	Payload() *Buffer
}

// channelOf returns the ChannelID a message is scoped to, if any.
// CloseRequest and a connection-wide ErrorResponse, which carry no
// receiver, return false.
func channelOf(msg Message) (ChannelID, bool) {
	switch m := msg.(type) {
	case *BufferResponse:
		return m.ReceiverID, true
	case *ErrorResponse:
		if m.HasReceiver {
			return m.ReceiverID, true
		}
	case *PartitionRequest:
		return m.ReceiverID, true
	case *TaskEventRequest:
		return m.ReceiverID, true
	case *CancelPartitionRequest:
		return m.ReceiverID, true
	case *AddCredit:
		return m.ReceiverID, true
	case *ResumeConsumption:
		return m.ReceiverID, true
	case *AckAllUserRecordsProcessed:
		return m.ReceiverID, true
	case *BacklogAnnouncement:
		return m.ReceiverID, true
	case *NewBufferSize:
		return m.ReceiverID, true
	case *SegmentId:
		return m.ReceiverID, true
	}
	return ChannelID{}, false
}

type decodeFn func(body []byte) (Message, error)

var decodeTable = map[byte]decodeFn{
	MsgBufferResponse:              decodeBufferResponse,
	MsgErrorResponse:                decodeErrorResponse,
	MsgPartitionRequest:             decodePartitionRequest,
	MsgTaskEventRequest:             decodeTaskEventRequest,
	MsgCancelPartitionRequest:       decodeCancelPartitionRequest,
	MsgCloseRequest:                 decodeCloseRequest,
	MsgAddCredit:                    decodeAddCredit,
	MsgResumeConsumption:            decodeResumeConsumption,
	MsgAckAllUserRecordsProcessed:   decodeAckAllUserRecordsProcessed,
	MsgBacklogAnnouncement:          decodeBacklogAnnouncement,
	MsgNewBufferSize:                decodeNewBufferSize,
	MsgSegmentId:                    decodeSegmentId,
}

// isKnownMessage reports whether id names a message in the catalog.
func isKnownMessage(id byte) bool {
	_, ok := decodeTable[id]
	return ok
}
