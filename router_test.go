package shuffle

import "testing"

func TestRouterRegistersProducerOnPartitionRequest(t *testing.T) {
	r := NewRouter(Handlers{})
	var recv ChannelID
	recv[0] = 1
	r.Dispatch(&PartitionRequest{ReceiverID: recv, InitialCredit: 3, Subpartitions: NewSubpartitionIndexSet(0)})

	pc, ok := r.Producer(recv)
	if !ok {
		t.Fatalf("expected producer channel to be registered")
	}
	if pc.Remaining() != 3 {
		t.Errorf("expected initial credit 3, got %v", pc.Remaining())
	}
}

func TestRouterAppliesAddCreditBeforeCallback(t *testing.T) {
	var recv ChannelID
	recv[0] = 2
	var seen int32
	r := NewRouter(Handlers{
		OnAddCredit: func(m *AddCredit) {
			pc, _ := r.Producer(recv)
			seen = pc.Remaining()
		},
	})
	r.RegisterProducer(recv, 0)
	r.Dispatch(&AddCredit{Credit: 5, ReceiverID: recv})

	if seen != 5 {
		t.Errorf("expected the callback to observe credit already granted, got %v", seen)
	}
}

func TestRouterAppliesCancelBeforeCallback(t *testing.T) {
	var recv ChannelID
	recv[0] = 3
	called := false
	r := NewRouter(Handlers{OnCancelPartitionRequest: func(*CancelPartitionRequest) { called = true }})
	pc := r.RegisterProducer(recv, 1)
	r.Dispatch(&CancelPartitionRequest{ReceiverID: recv})

	if !pc.IsCancelled() {
		t.Errorf("expected channel cancelled")
	}
	if !called {
		t.Errorf("expected callback invoked")
	}
}

func TestRouterBacklogAnnouncementUpdatesBothSides(t *testing.T) {
	var recv ChannelID
	recv[0] = 4
	r := NewRouter(Handlers{})
	pc := r.RegisterProducer(recv, 1)
	r.Dispatch(&BacklogAnnouncement{Backlog: 7, ReceiverID: recv})

	if pc.Backlog() != 7 {
		t.Errorf("expected producer backlog 7, got %v", pc.Backlog())
	}
	cc := r.Consumer(recv)
	if cc.backlog != 7 {
		t.Errorf("expected consumer backlog 7, got %v", cc.backlog)
	}
}

func TestRouterBufferResponseDecrementsConsumerOutstanding(t *testing.T) {
	var recv ChannelID
	recv[0] = 5
	r := NewRouter(Handlers{})
	cc := r.Consumer(recv)
	cc.OnCreditGranted(2)

	r.Dispatch(&BufferResponse{ReceiverID: recv})

	if cc.EstimatedOutstanding() != 1 {
		t.Errorf("expected outstanding 1, got %v", cc.EstimatedOutstanding())
	}
}

func TestRouterForgetProducer(t *testing.T) {
	var recv ChannelID
	recv[0] = 6
	r := NewRouter(Handlers{})
	r.RegisterProducer(recv, 1)
	r.ForgetProducer(recv)

	if _, ok := r.Producer(recv); ok {
		t.Errorf("expected producer channel to be forgotten")
	}
	if r.IsLive(recv) {
		t.Errorf("expected forgotten channel to be reported not live")
	}
}

func TestRouterShutdownNotifiesOnError(t *testing.T) {
	var got *ErrorResponse
	r := NewRouter(Handlers{OnError: func(e *ErrorResponse) { got = e }})
	r.Shutdown(errClosedForTest{})

	if got == nil || !got.IsFatal() {
		t.Errorf("expected a fatal ErrorResponse on shutdown, got %+v", got)
	}
}

type errClosedForTest struct{}

func (errClosedForTest) Error() string { return "connection reset" }
