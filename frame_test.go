package shuffle

import "testing"
import "bytes"
import "encoding/binary"

func TestEncodeFrameCloseRequest(t *testing.T) {
	frame := EncodeFrame(&CloseRequest{})
	ref := []byte{
		0, 0, 0, 9, // total length: header only, empty body
		0xBA, 0xDC, 0x0F, 0xFE,
		MsgCloseRequest,
	}
	if !bytes.Equal(frame, ref) {
		t.Errorf("expected %v, got %v", ref, frame)
	}
}

func TestEncodeFrameAddCredit(t *testing.T) {
	var recv ChannelID
	recv[15] = 0x42
	msg := &AddCredit{Credit: 5, ReceiverID: recv}
	frame := EncodeFrame(msg)

	if got := binary.BigEndian.Uint32(frame[0:4]); int(got) != len(frame) {
		t.Errorf("expected declared length %d to match frame length %d", got, len(frame))
	}
	if got := binary.BigEndian.Uint32(frame[4:8]); got != MagicNumber {
		t.Errorf("expected magic %#x, got %#x", MagicNumber, got)
	}
	if frame[8] != MsgAddCredit {
		t.Errorf("expected id %d, got %d", MsgAddCredit, frame[8])
	}
}

func TestFrameDecoderSingleFrame(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)
	dec := NewFrameDecoder(alloc)

	frame := EncodeFrame(&CloseRequest{})
	events, err := dec.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if _, ok := events[0].Msg.(*CloseRequest); !ok {
		t.Errorf("expected CloseRequest, got %T", events[0].Msg)
	}
}

func TestFrameDecoderMultipleFramesOneChunk(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)
	dec := NewFrameDecoder(alloc)

	var chunk []byte
	chunk = append(chunk, EncodeFrame(&CloseRequest{})...)
	chunk = append(chunk, EncodeFrame(&AddCredit{Credit: 1})...)
	chunk = append(chunk, EncodeFrame(&ResumeConsumption{})...)

	events, err := dec.Feed(chunk)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}

// TestFrameDecoderArbitraryChunking asserts decoding does not depend
// on how the input byte stream happens to be split into Read/Feed
// calls: the same three frames fed one byte at a time must produce the
// same three messages as feeding them all at once.
func TestFrameDecoderArbitraryChunking(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)

	var whole []byte
	whole = append(whole, EncodeFrame(&CloseRequest{})...)
	whole = append(whole, EncodeFrame(&AddCredit{Credit: 3})...)
	whole = append(whole, EncodeFrame(&BacklogAnnouncement{Backlog: 9})...)

	for _, chunkSize := range []int{1, 2, 3, 7, len(whole)} {
		dec := NewFrameDecoder(alloc)
		var got []Message
		for off := 0; off < len(whole); off += chunkSize {
			end := off + chunkSize
			if end > len(whole) {
				end = len(whole)
			}
			events, err := dec.Feed(whole[off:end])
			if err != nil {
				t.Fatalf("chunkSize %d: unexpected error %v", chunkSize, err)
			}
			for _, ev := range events {
				got = append(got, ev.Msg)
			}
		}
		if len(got) != 3 {
			t.Fatalf("chunkSize %d: expected 3 messages, got %d", chunkSize, len(got))
		}
		if _, ok := got[0].(*CloseRequest); !ok {
			t.Errorf("chunkSize %d: expected CloseRequest first, got %T", chunkSize, got[0])
		}
		if ac, ok := got[1].(*AddCredit); !ok || ac.Credit != 3 {
			t.Errorf("chunkSize %d: expected AddCredit{3} second, got %+v", chunkSize, got[1])
		}
		if ba, ok := got[2].(*BacklogAnnouncement); !ok || ba.Backlog != 9 {
			t.Errorf("chunkSize %d: expected BacklogAnnouncement{9} third, got %+v", chunkSize, got[2])
		}
	}
}

func TestFrameDecoderBadMagicIsFatal(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)
	dec := NewFrameDecoder(alloc)

	frame := EncodeFrame(&CloseRequest{})
	binary.BigEndian.PutUint32(frame[4:8], 0xDEADBEEF)

	_, err := dec.Feed(frame)
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T (%v)", err, err)
	}
	if pe.Kind != KindStreamCorruption || !pe.Fatal() {
		t.Errorf("expected a fatal stream-corruption error, got %v", pe)
	}
}

func TestFrameDecoderUnknownMessageIsFatal(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)
	dec := NewFrameDecoder(alloc)

	frame := EncodeFrame(&CloseRequest{})
	frame[8] = 200 // not in the catalog

	_, err := dec.Feed(frame)
	pe, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T (%v)", err, err)
	}
	if pe.Kind != KindUnknownMessage {
		t.Errorf("expected unknown-message, got %v", pe.Kind)
	}
}

func TestFrameDecoderPerFrameDecodeFailureContinuesStream(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)
	dec := NewFrameDecoder(alloc)

	// A truncated AddCredit body: frames fine, fails decodeAddCredit's
	// own length check.
	badBody := make([]byte, FrameHeaderLength+2)
	binary.BigEndian.PutUint32(badBody[0:4], uint32(len(badBody)))
	binary.BigEndian.PutUint32(badBody[4:8], MagicNumber)
	badBody[8] = MsgAddCredit

	good := EncodeFrame(&CloseRequest{})

	var chunk []byte
	chunk = append(chunk, badBody...)
	chunk = append(chunk, good...)

	events, err := dec.Feed(chunk)
	if err != nil {
		t.Fatalf("unexpected fatal error %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Err == nil {
		t.Errorf("expected first event to carry a decode error")
	}
	if _, ok := events[1].Msg.(*CloseRequest); !ok {
		t.Errorf("expected stream to continue decoding after a bad frame, got %T", events[1].Msg)
	}
}

func TestBufferResponseHeaderAndPayloadRoundtrip(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)
	dec := NewFrameDecoder(alloc)

	var recv ChannelID
	recv[2] = 5
	payload := &Buffer{Data: []byte("hello, shuffle"), size: uint32(len("hello, shuffle")), DataType: DataTypeDataBuffer}
	msg := &BufferResponse{ReceiverID: recv, SubpartitionID: 1, SequenceNumber: 0, Backlog: 0, Buffer: payload}

	frame := msg.EncodeComposite()
	events, err := dec.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got, ok := events[0].Msg.(*BufferResponse)
	if !ok {
		t.Fatalf("expected *BufferResponse, got %T", events[0].Msg)
	}
	if got.ReceiverID != recv || got.SubpartitionID != 1 {
		t.Errorf("unexpected header fields %+v", got)
	}
	if got.Buffer == nil || !bytes.Equal(got.Buffer.Bytes(), payload.Data) {
		t.Errorf("expected payload %q, got %+v", payload.Data, got.Buffer)
	}
}

func TestBufferResponseZeroSizePayload(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)
	dec := NewFrameDecoder(alloc)

	msg := &BufferResponse{SubpartitionID: 0, Buffer: &Buffer{Data: nil, size: 0, DataType: DataTypeEndOfPartition}}
	frame := msg.EncodeComposite()

	events, err := dec.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	got := events[0].Msg.(*BufferResponse)
	if got.Buffer != nil {
		t.Errorf("expected a nil payload for a zero-size buffer, got %+v", got.Buffer)
	}
}

func TestBufferResponseCompositePayload(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, nil)
	dec := NewFrameDecoder(alloc)

	a := &Buffer{Data: []byte("part-one-"), size: uint32(len("part-one-")), DataType: DataTypeDataBuffer}
	b := &Buffer{Data: []byte("part-two"), size: uint32(len("part-two")), DataType: DataTypeDataBuffer}
	composite := &Buffer{Components: []*Buffer{a, b}, DataType: DataTypeDataBuffer}

	msg := &BufferResponse{SubpartitionID: 2, Buffer: composite}
	frame := msg.EncodeComposite()

	events, err := dec.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	got := events[0].Msg.(*BufferResponse)
	if !bytes.Equal(got.Buffer.Bytes(), []byte("part-one-part-two")) {
		t.Errorf("expected concatenated composite bytes, got %q", got.Buffer.Bytes())
	}
	if len(got.Buffer.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(got.Buffer.Components))
	}
}

func TestBufferResponseCompositeFailureRecyclesEarlierComponents(t *testing.T) {
	calls := 0
	isLive := func(ChannelID) bool {
		calls++
		return calls == 1 // first component allocates fine, second finds the channel gone
	}
	alloc := NewNetworkBufferPool(1024, 4, isLive)
	dec := NewFrameDecoder(alloc)

	a := &Buffer{Data: []byte("part-one-"), size: uint32(len("part-one-")), DataType: DataTypeDataBuffer}
	b := &Buffer{Data: []byte("part-two"), size: uint32(len("part-two")), DataType: DataTypeDataBuffer}
	composite := &Buffer{Components: []*Buffer{a, b}, DataType: DataTypeDataBuffer}

	msg := &BufferResponse{SubpartitionID: 2, Buffer: composite}
	frame := msg.EncodeComposite()

	events, err := dec.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected fatal error %v", err)
	}
	if len(events) != 1 || events[0].Err == nil {
		t.Fatalf("expected a per-frame decode error when the second component's channel is gone, got %+v", events)
	}
	if got := len(alloc.pool); got != 4 {
		t.Errorf("expected the first component's pooled buffer to be recycled, pool has %d of 4 buffers", got)
	}
}

func TestBufferResponseEventPayloadBypassesPool(t *testing.T) {
	// A pool sized far too small for the event payload below: if fillBuffer
	// mistakenly routed this through AllocatePooled, the copy into buf.Data
	// would be truncated to bufsize bytes.
	alloc := NewNetworkBufferPool(4, 1, nil)
	dec := NewFrameDecoder(alloc)

	data := []byte("a checkpoint barrier payload longer than the pool's bufsize")
	msg := &BufferResponse{Buffer: &Buffer{Data: data, size: uint32(len(data)), DataType: DataTypeUnalignedCheckpointBarrier}}
	frame := msg.EncodeComposite()

	events, err := dec.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	got := events[0].Msg.(*BufferResponse)
	if got.Buffer == nil || !bytes.Equal(got.Buffer.Bytes(), data) {
		t.Errorf("expected full unpooled payload %q, got %+v", data, got.Buffer)
	}
	if got.Buffer.DataType != DataTypeUnalignedCheckpointBarrier {
		t.Errorf("expected DataTypeUnalignedCheckpointBarrier, got %v", got.Buffer.DataType)
	}
}

func TestBufferResponseChannelGoneYieldsNilBufferNotError(t *testing.T) {
	alloc := NewNetworkBufferPool(1024, 4, func(ChannelID) bool { return false })
	dec := NewFrameDecoder(alloc)

	msg := &BufferResponse{Buffer: &Buffer{Data: []byte("data"), size: 4, DataType: DataTypeDataBuffer}}
	frame := msg.EncodeComposite()

	events, err := dec.Feed(frame)
	if err != nil {
		t.Fatalf("unexpected fatal error %v", err)
	}
	got := events[0].Msg.(*BufferResponse)
	if events[0].Err != nil {
		t.Errorf("expected no per-frame error when channel is gone, got %v", events[0].Err)
	}
	if got.Buffer != nil {
		t.Errorf("expected nil buffer when channel is gone, got %+v", got.Buffer)
	}
}
