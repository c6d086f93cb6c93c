package shuffle

import "encoding/hex"
import "io"

// idLength is the wire length, in bytes, of every identifier this
// protocol exchanges: InputChannelID, IntermediateResultPartitionID and
// ExecutionAttemptID are each backed by two uint64 fields on the
// producing side, so every identifier in the catalog is 16 bytes wide.
const idLength = 16

// ChannelID identifies one InputChannel on the consuming side of a
// connection. It is opaque to the wire protocol: callers mint values
// however fits their deployment (a UUID, a counter, a hash of
// task/subtask coordinates) and this package only ever copies them.
type ChannelID [idLength]byte

// String renders the identifier as a lowercase hex string, used for
// logging and error messages, never for wire purposes.
func (id ChannelID) String() string {
	return hex.EncodeToString(id[:])
}

// Put writes id into out, which must have at least idLength bytes of
// room, and returns idLength.
func (id ChannelID) Put(out []byte) int {
	copy(out, id[:])
	return idLength
}

// ReadChannelID reads a ChannelID from the front of in. It returns a
// zero id and false if in is shorter than idLength.
func ReadChannelID(in []byte) (ChannelID, bool) {
	var id ChannelID
	if len(in) < idLength {
		return id, false
	}
	copy(id[:], in[:idLength])
	return id, true
}

// WriteTo implements io.WriterTo for callers that want the identifier's
// bytes without a Buffer in between.
func (id ChannelID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(id[:])
	return int64(n), err
}

// PartitionID names the IntermediateResultPartition a PartitionRequest
// targets, scoped to the producer attempt that owns it.
type PartitionID struct {
	IntermediatePartition [idLength]byte
	ProducerAttempt       [idLength]byte
}

// String renders both halves as lowercase hex, separated by a colon.
func (id PartitionID) String() string {
	return hex.EncodeToString(id.IntermediatePartition[:]) + ":" +
		hex.EncodeToString(id.ProducerAttempt[:])
}

// Put writes id into out, which must have at least 2*idLength bytes of
// room, and returns 2*idLength.
func (id PartitionID) Put(out []byte) int {
	n := copy(out, id.IntermediatePartition[:])
	n += copy(out[n:], id.ProducerAttempt[:])
	return n
}

// ReadPartitionID reads a PartitionID from the front of in. It returns
// a zero id and false if in is shorter than 2*idLength.
func ReadPartitionID(in []byte) (PartitionID, bool) {
	var id PartitionID
	if len(in) < 2*idLength {
		return id, false
	}
	copy(id.IntermediatePartition[:], in[:idLength])
	copy(id.ProducerAttempt[:], in[idLength:2*idLength])
	return id, true
}
