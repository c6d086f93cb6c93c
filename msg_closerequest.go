package shuffle

// CloseRequest asks the peer to close the connection once any
// in-flight messages have drained. It carries no fields.
type CloseRequest struct{}

func (m *CloseRequest) ID() byte { return MsgCloseRequest }

func (m *CloseRequest) Len() int { return 0 }

func (m *CloseRequest) EncodeBody(out []byte) int { return 0 }

func decodeCloseRequest(body []byte) (Message, error) {
	return &CloseRequest{}, nil
}

func (m *CloseRequest) String() string { return "CloseRequest{}" }
