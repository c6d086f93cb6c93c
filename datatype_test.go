package shuffle

import "testing"

func TestDataTypePredicates(t *testing.T) {
	cases := []struct {
		dt                DataType
		isBuffer          bool
		isCheckpoint      bool
		requiresPause     bool
		isEndOfStream     bool
	}{
		{DataTypeDataBuffer, true, false, false, false},
		{DataTypeEventBuffer, false, false, false, false},
		{DataTypeAlignedCheckpointBarrier, false, true, false, false},
		{DataTypeUnalignedCheckpointBarrier, false, true, true, false},
		{DataTypeTimeoutableAlignedCheckpointBarrier, false, true, false, false},
		{DataTypeEndOfPartition, false, false, false, true},
		{DataTypeEndOfSegment, false, false, false, false},
	}
	for _, c := range cases {
		if got := c.dt.IsBuffer(); got != c.isBuffer {
			t.Errorf("%v.IsBuffer(): expected %v, got %v", c.dt, c.isBuffer, got)
		}
		if got := c.dt.IsEvent(); got == c.isBuffer {
			t.Errorf("%v.IsEvent(): expected complement of IsBuffer", c.dt)
		}
		if got := c.dt.IsCheckpointBarrier(); got != c.isCheckpoint {
			t.Errorf("%v.IsCheckpointBarrier(): expected %v, got %v", c.dt, c.isCheckpoint, got)
		}
		if got := c.dt.RequiresCheckpointPause(); got != c.requiresPause {
			t.Errorf("%v.RequiresCheckpointPause(): expected %v, got %v", c.dt, c.requiresPause, got)
		}
		if got := c.dt.IsEndOfStream(); got != c.isEndOfStream {
			t.Errorf("%v.IsEndOfStream(): expected %v, got %v", c.dt, c.isEndOfStream, got)
		}
		if c.dt.String() == "Unknown" {
			t.Errorf("expected a named String() for %v", c.dt)
		}
	}
}

func TestDataTypeUnknownString(t *testing.T) {
	if got := DataType(255).String(); got != "Unknown" {
		t.Errorf("expected Unknown, got %v", got)
	}
}
