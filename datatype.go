package shuffle

// DataType classifies the payload carried by a BufferResponse. The
// ordinal values match the Buffer.DataType table this protocol's data
// model is drawn from, so they are stable across the wire and must
// never be reordered.
type DataType byte

const (
	DataTypeNone DataType = iota
	DataTypeDataBuffer
	DataTypeEventBuffer
	DataTypeAlignedCheckpointBarrier
	DataTypeTimeoutableAlignedCheckpointBarrier
	DataTypeUnalignedCheckpointBarrier
	DataTypeRecoveryCompletion
	DataTypeEndOfPartition
	DataTypeEndOfSegment
)

// IsBuffer reports whether d carries a record-bearing buffer, as
// opposed to an event of some kind.
func (d DataType) IsBuffer() bool {
	return d == DataTypeDataBuffer
}

// IsEvent reports whether d carries an event rather than records.
func (d DataType) IsEvent() bool {
	return !d.IsBuffer()
}

// IsCheckpointBarrier reports whether d is any flavor of checkpoint
// barrier.
func (d DataType) IsCheckpointBarrier() bool {
	switch d {
	case DataTypeAlignedCheckpointBarrier,
		DataTypeTimeoutableAlignedCheckpointBarrier,
		DataTypeUnalignedCheckpointBarrier:
		return true
	}
	return false
}

// RequiresCheckpointPause reports whether receiving d must pause a
// producer channel until the checkpoint aligns, as an unaligned barrier
// does.
func (d DataType) RequiresCheckpointPause() bool {
	return d == DataTypeUnalignedCheckpointBarrier
}

// IsEndOfStream reports whether d signals that no further data will
// follow on the channel.
func (d DataType) IsEndOfStream() bool {
	return d == DataTypeEndOfPartition
}

func (d DataType) String() string {
	switch d {
	case DataTypeNone:
		return "None"
	case DataTypeDataBuffer:
		return "DataBuffer"
	case DataTypeEventBuffer:
		return "EventBuffer"
	case DataTypeAlignedCheckpointBarrier:
		return "AlignedCheckpointBarrier"
	case DataTypeTimeoutableAlignedCheckpointBarrier:
		return "TimeoutableAlignedCheckpointBarrier"
	case DataTypeUnalignedCheckpointBarrier:
		return "UnalignedCheckpointBarrier"
	case DataTypeRecoveryCompletion:
		return "RecoveryCompletion"
	case DataTypeEndOfPartition:
		return "EndOfPartition"
	case DataTypeEndOfSegment:
		return "EndOfSegment"
	}
	return "Unknown"
}
