package shuffle

import "encoding/binary"
import "fmt"

// ErrorResponse carries a producer- or consumer-side failure back to
// the peer. HasReceiver distinguishes a per-channel error (the
// receiving side should tear down just that channel) from a fatal,
// connection-wide error (HasReceiver false, no ReceiverID, the
// connection itself must close).
//
// Field order is flag, then optional channel id, then three plain
// strings, so any peer can decode the cause without running a
// language-specific deserializer.
type ErrorResponse struct {
	HasReceiver bool
	ReceiverID  ChannelID
	ErrorClass  string
	Message     string
	Stack       string
}

func (m *ErrorResponse) ID() byte { return MsgErrorResponse }

// IsFatal reports whether this error is connection-wide rather than
// scoped to one channel.
func (m *ErrorResponse) IsFatal() bool {
	return !m.HasReceiver
}

func (m *ErrorResponse) Len() int {
	n := 1
	if m.HasReceiver {
		n += idLength
	}
	n += 4 + len(m.ErrorClass)
	n += 4 + len(m.Message)
	n += 4 + len(m.Stack)
	return n
}

func (m *ErrorResponse) EncodeBody(out []byte) int {
	n := 0
	if m.HasReceiver {
		out[n] = 1
	} else {
		out[n] = 0
	}
	n++
	if m.HasReceiver {
		n += m.ReceiverID.Put(out[n:])
	}
	n += putString(out[n:], m.ErrorClass)
	n += putString(out[n:], m.Message)
	n += putString(out[n:], m.Stack)
	return n
}

func decodeErrorResponse(body []byte) (Message, error) {
	if len(body) < 1 {
		return nil, fmt.Errorf("errorresponse: truncated flag")
	}
	m := &ErrorResponse{HasReceiver: body[0] != 0}
	n := 1
	if m.HasReceiver {
		if len(body) < n+idLength {
			return nil, fmt.Errorf("errorresponse: truncated receiver id")
		}
		recv, _ := ReadChannelID(body[n:])
		m.ReceiverID = recv
		n += idLength
	}
	var ok bool
	if m.ErrorClass, n, ok = readString(body, n); !ok {
		return nil, fmt.Errorf("errorresponse: truncated error class")
	}
	if m.Message, n, ok = readString(body, n); !ok {
		return nil, fmt.Errorf("errorresponse: truncated message")
	}
	if m.Stack, n, ok = readString(body, n); !ok {
		return nil, fmt.Errorf("errorresponse: truncated stack")
	}
	return m, nil
}

func (m *ErrorResponse) String() string {
	if m.HasReceiver {
		return fmt.Sprintf("ErrorResponse{receiver:%v class:%v message:%v}", m.ReceiverID, m.ErrorClass, m.Message)
	}
	return fmt.Sprintf("ErrorResponse{fatal class:%v message:%v}", m.ErrorClass, m.Message)
}

// putString writes a length-prefixed (4-byte big-endian) string and
// returns the number of bytes written, shared by every message type
// in the catalog that carries a variable-length string field.
func putString(out []byte, s string) int {
	binary.BigEndian.PutUint32(out[0:4], uint32(len(s)))
	copy(out[4:], s)
	return 4 + len(s)
}

func readString(in []byte, off int) (string, int, bool) {
	if len(in) < off+4 {
		return "", off, false
	}
	ln := int(binary.BigEndian.Uint32(in[off : off+4]))
	off += 4
	if ln < 0 || len(in) < off+ln {
		return "", off, false
	}
	return string(in[off : off+ln]), off + ln, true
}
