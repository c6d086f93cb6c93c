package shuffle

import "sync"

// Handlers holds one callback per message kind. An embedder sets
// whichever fields its role needs — a producer cares about
// PartitionRequest/CancelPartitionRequest/AddCredit/..., a consumer
// about BufferResponse/BacklogAnnouncement/... — and leaves the rest
// nil; Router skips a nil handler after applying its own bookkeeping.
// None of these are called with the router's internal lock held.
type Handlers struct {
	OnBufferResponse              func(*BufferResponse)
	OnError                       func(*ErrorResponse)
	OnPartitionRequest            func(*PartitionRequest)
	OnTaskEventRequest            func(*TaskEventRequest)
	OnCancelPartitionRequest      func(*CancelPartitionRequest)
	OnCloseRequest                func(*CloseRequest)
	OnAddCredit                   func(*AddCredit)
	OnResumeConsumption           func(*ResumeConsumption)
	OnAckAllUserRecordsProcessed  func(*AckAllUserRecordsProcessed)
	OnBacklogAnnouncement         func(*BacklogAnnouncement)
	OnNewBufferSize               func(*NewBufferSize)
	OnSegmentId                   func(*SegmentId)
}

// Router dispatches decoded messages to an embedder's Handlers, first
// applying the credit contract's own bookkeeping against the
// producer- and consumer-side channel registries it owns.
type Router struct {
	h Handlers

	mu        sync.RWMutex
	producers map[ChannelID]*ProducerChannel
	consumers map[ChannelID]*ConsumerChannel
}

// NewRouter creates a Router that calls back into h.
func NewRouter(h Handlers) *Router {
	return &Router{
		h:         h,
		producers: make(map[ChannelID]*ProducerChannel),
		consumers: make(map[ChannelID]*ConsumerChannel),
	}
}

// Producer returns the ProducerChannel registered for id, if any.
func (r *Router) Producer(id ChannelID) (*ProducerChannel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pc, ok := r.producers[id]
	return pc, ok
}

// RegisterProducer creates and registers a ProducerChannel for id with
// the given initial credit, replacing any existing registration.
func (r *Router) RegisterProducer(id ChannelID, initialCredit int32) *ProducerChannel {
	pc := NewProducerChannel(id, initialCredit)
	r.mu.Lock()
	r.producers[id] = pc
	r.mu.Unlock()
	return pc
}

// ForgetProducer removes id's ProducerChannel, called once its
// resources have been fully released.
func (r *Router) ForgetProducer(id ChannelID) {
	r.mu.Lock()
	delete(r.producers, id)
	r.mu.Unlock()
}

// Consumer returns the ConsumerChannel registered for id, creating one
// if this is the first time id has been seen.
func (r *Router) Consumer(id ChannelID) *ConsumerChannel {
	r.mu.Lock()
	defer r.mu.Unlock()
	cc, ok := r.consumers[id]
	if !ok {
		cc = NewConsumerChannel(id)
		r.consumers[id] = cc
	}
	return cc
}

// IsLive reports whether id names a still-registered producer
// channel; this is the predicate NetworkBufferPool consults before
// allocating a buffer for an incoming BufferResponse.
func (r *Router) IsLive(id ChannelID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.producers[id]
	return ok
}

// Dispatch routes one decoded message: it applies the credit
// contract's bookkeeping, then invokes the matching Handlers callback
// if the embedder registered one. An ErrorResponse, per-channel or
// connection-wide, is passed to OnError once; Dispatch does not notify
// each registered channel of a connection-wide error and does not
// close the connection.
func (r *Router) Dispatch(msg Message) {
	switch m := msg.(type) {
	case *BufferResponse:
		r.Consumer(m.ReceiverID).OnBufferReceived()
		if r.h.OnBufferResponse != nil {
			r.h.OnBufferResponse(m)
		}

	case *ErrorResponse:
		if r.h.OnError != nil {
			r.h.OnError(m)
		}

	case *PartitionRequest:
		r.RegisterProducer(m.ReceiverID, m.InitialCredit)
		if r.h.OnPartitionRequest != nil {
			r.h.OnPartitionRequest(m)
		}

	case *TaskEventRequest:
		if r.h.OnTaskEventRequest != nil {
			r.h.OnTaskEventRequest(m)
		}

	case *CancelPartitionRequest:
		if pc, ok := r.Producer(m.ReceiverID); ok {
			pc.Cancel()
		}
		if r.h.OnCancelPartitionRequest != nil {
			r.h.OnCancelPartitionRequest(m)
		}

	case *CloseRequest:
		if r.h.OnCloseRequest != nil {
			r.h.OnCloseRequest(m)
		}

	case *AddCredit:
		if pc, ok := r.Producer(m.ReceiverID); ok {
			pc.Grant(m.Credit)
		}
		if r.h.OnAddCredit != nil {
			r.h.OnAddCredit(m)
		}

	case *ResumeConsumption:
		if pc, ok := r.Producer(m.ReceiverID); ok {
			pc.Resume()
		}
		if r.h.OnResumeConsumption != nil {
			r.h.OnResumeConsumption(m)
		}

	case *AckAllUserRecordsProcessed:
		if r.h.OnAckAllUserRecordsProcessed != nil {
			r.h.OnAckAllUserRecordsProcessed(m)
		}

	case *BacklogAnnouncement:
		if pc, ok := r.Producer(m.ReceiverID); ok {
			pc.SetBacklog(m.Backlog)
		}
		r.Consumer(m.ReceiverID).OnBacklogAnnounced(m.Backlog)
		if r.h.OnBacklogAnnouncement != nil {
			r.h.OnBacklogAnnouncement(m)
		}

	case *NewBufferSize:
		if r.h.OnNewBufferSize != nil {
			r.h.OnNewBufferSize(m)
		}

	case *SegmentId:
		if pc, ok := r.Producer(m.ReceiverID); ok {
			pc.SetSegment(m.SubpartitionID, m.Segment)
		}
		if r.h.OnSegmentId != nil {
			r.h.OnSegmentId(m)
		}
	}
}

// Shutdown notifies the embedder that the connection is going away,
// so a handler blocked waiting on this channel's next message can
// unblock instead of hanging once the goroutine feeding it exits.
func (r *Router) Shutdown(cause error) {
	if r.h.OnError == nil {
		return
	}
	r.h.OnError(&ErrorResponse{HasReceiver: false, ErrorClass: "connection-closed", Message: cause.Error()})
}
