package shuffle

import "fmt"
import "sync"
import "sync/atomic"

// ProducerChannel tracks one producer-side channel's credit and flow
// state: how many buffers it may still send, how many more are queued
// up behind those, whether it is paused for an unaligned checkpoint
// barrier, and which segment each subpartition is currently on. Every
// counter is atomic rather than mutex-guarded, since credit updates
// arrive on the receive loop while sends happen on whichever goroutine
// the embedder calls SendBufferResponse from.
type ProducerChannel struct {
	id        ChannelID
	credit    int32
	backlog   int32
	sequence  int32
	paused    int32
	cancelled int32

	mu       sync.Mutex
	segments map[int32]int32
}

// NewProducerChannel creates bookkeeping for channel id, starting with
// initialCredit buffers of headroom.
func NewProducerChannel(id ChannelID, initialCredit int32) *ProducerChannel {
	return &ProducerChannel{id: id, credit: initialCredit, segments: make(map[int32]int32)}
}

// Grant adds n to the channel's remaining credit. n must be strictly
// positive; AddCredit enforces this before Grant is ever called, but
// Grant re-checks so a bookkeeping bug elsewhere can't silently hand
// back negative credit.
func (c *ProducerChannel) Grant(n int32) error {
	if n <= 0 {
		return newProtoErr(KindContractViolation, &c.id, fmt.Errorf("credit grant must be positive, got %d", n))
	}
	atomic.AddInt32(&c.credit, n)
	return nil
}

// TryConsume decrements the channel's credit by one if any remains,
// reporting whether it succeeded. SendBufferResponse calls this itself
// and refuses with a contract violation when it fails, so a producer
// sending through SendBufferResponse does not call it first.
func (c *ProducerChannel) TryConsume() bool {
	for {
		cur := atomic.LoadInt32(&c.credit)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&c.credit, cur, cur-1) {
			return true
		}
	}
}

// Remaining returns the channel's current credit.
func (c *ProducerChannel) Remaining() int32 {
	return atomic.LoadInt32(&c.credit)
}

// SetBacklog records how many buffers are already queued for this
// channel, ahead of a BacklogAnnouncement. n must not be negative.
func (c *ProducerChannel) SetBacklog(n int32) error {
	if n < 0 {
		return newProtoErr(KindContractViolation, &c.id, fmt.Errorf("backlog must not be negative, got %d", n))
	}
	atomic.StoreInt32(&c.backlog, n)
	return nil
}

// Backlog returns the channel's last-announced backlog.
func (c *ProducerChannel) Backlog() int32 {
	return atomic.LoadInt32(&c.backlog)
}

// NextSequence returns the next strictly-increasing sequence number to
// stamp on a BufferResponse sent on this channel, starting at 0.
func (c *ProducerChannel) NextSequence() int32 {
	return atomic.AddInt32(&c.sequence, 1) - 1
}

// Pause marks the channel paused, e.g. while an unaligned checkpoint
// barrier is in flight; SendBufferResponse should refuse to send while
// paused.
func (c *ProducerChannel) Pause() { atomic.StoreInt32(&c.paused, 1) }

// Resume unpauses the channel, called on receipt of ResumeConsumption.
func (c *ProducerChannel) Resume() { atomic.StoreInt32(&c.paused, 0) }

// IsPaused reports whether the channel is currently paused.
func (c *ProducerChannel) IsPaused() bool { return atomic.LoadInt32(&c.paused) != 0 }

// Cancel marks the channel cancelled, called on receipt of
// CancelPartitionRequest; any buffer already allocated for it should
// be recycled and no further sends attempted.
func (c *ProducerChannel) Cancel() { atomic.StoreInt32(&c.cancelled, 1) }

// IsCancelled reports whether the channel has been cancelled.
func (c *ProducerChannel) IsCancelled() bool { return atomic.LoadInt32(&c.cancelled) != 0 }

// SetSegment records which segment id subpartition is now reading
// from. segment must be strictly positive.
func (c *ProducerChannel) SetSegment(subpartition, segment int32) error {
	if segment <= 0 {
		return newProtoErr(KindContractViolation, &c.id, fmt.Errorf("segment id must be positive, got %d", segment))
	}
	c.mu.Lock()
	c.segments[subpartition] = segment
	c.mu.Unlock()
	return nil
}

// Segment returns the last segment id recorded for subpartition, or
// zero if none has been.
func (c *ProducerChannel) Segment(subpartition int32) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.segments[subpartition]
}

// ConsumerChannel is the lightweight, consumer-side mirror of
// ProducerChannel: it tracks what the consumer itself believes it has
// granted and been told, for local sanity and logging. It is never
// authoritative; the producer's ProducerChannel is, since a
// consumer's view of its own grants can lag the producer's view of
// its own consumption by one message in flight.
type ConsumerChannel struct {
	id       ChannelID
	granted  int32
	backlog  int32
}

// NewConsumerChannel creates bookkeeping for channel id.
func NewConsumerChannel(id ChannelID) *ConsumerChannel {
	return &ConsumerChannel{id: id}
}

// OnCreditGranted records that the consumer has sent AddCredit for n
// more buffers.
func (c *ConsumerChannel) OnCreditGranted(n int32) {
	atomic.AddInt32(&c.granted, n)
}

// OnBufferReceived records that one granted buffer has now arrived.
func (c *ConsumerChannel) OnBufferReceived() {
	atomic.AddInt32(&c.granted, -1)
}

// OnBacklogAnnounced records the producer's latest backlog hint.
func (c *ConsumerChannel) OnBacklogAnnounced(n int32) {
	atomic.StoreInt32(&c.backlog, n)
}

// EstimatedOutstanding returns how much granted credit the consumer
// believes is still unconsumed by the producer.
func (c *ConsumerChannel) EstimatedOutstanding() int32 {
	return atomic.LoadInt32(&c.granted)
}
