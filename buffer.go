package shuffle

import "sync"

// Buffer is the unit of zero-copy handoff between this package and its
// embedder. A Buffer is either a single contiguous slice (Data) or,
// when Components is non-empty, a fully-filled composite made of
// several independently pooled buffers written to the wire back to
// back without ever being copied into one contiguous slice.
type Buffer struct {
	Data         []byte
	DataType     DataType
	IsCompressed bool
	Components   []*Buffer

	size    uint32
	recycle func()
	mu      sync.Mutex
	used    bool
}

// Size returns the number of readable bytes this Buffer carries: the
// recorded size for a plain buffer (which can be less than len(Data)
// for a pooled buffer), or the sum of every component's size for a
// composite one.
func (b *Buffer) Size() uint32 {
	if b.Components != nil {
		var total uint32
		for _, c := range b.Components {
			total += c.Size()
		}
		return total
	}
	return b.size
}

// PartialSizes returns the per-component sizes of a composite buffer,
// or nil if b is not composite. Callers use this to reconstruct
// BufferResponse.PartialBufferSizes on encode.
func (b *Buffer) PartialSizes() []int32 {
	if b.Components == nil {
		return nil
	}
	sizes := make([]int32, len(b.Components))
	for i, c := range b.Components {
		sizes[i] = int32(c.Size())
	}
	return sizes
}

// Bytes returns the buffer's readable bytes. For a composite buffer
// this allocates and concatenates; callers on the write path that care
// about zero-copy should use Components directly (see writePayload in
// frame.go) rather than calling Bytes.
func (b *Buffer) Bytes() []byte {
	if b.Components == nil {
		return b.Data[:b.size]
	}
	out := make([]byte, 0, b.Size())
	for _, c := range b.Components {
		out = append(out, c.Bytes()...)
	}
	return out
}

// Recycle returns the buffer to whatever pool allocated it. It is safe
// to call exactly once; calling it a second time is a caller bug,
// logged rather than panicked on, since a double recycle must never
// corrupt a pool that's already handed the slice to someone else.
func (b *Buffer) Recycle() {
	if b.Components != nil {
		for _, c := range b.Components {
			c.Recycle()
		}
		return
	}
	b.mu.Lock()
	already := b.used
	b.used = true
	b.mu.Unlock()
	if already {
		log.Warnf("shuffle: buffer recycled more than once\n")
		return
	}
	if b.recycle != nil {
		b.recycle()
	}
}

// Allocator hands out Buffers for incoming BufferResponse payloads.
// AllocatePooled consults the embedder's notion of whether channel is
// still live; ok is false, with a nil Buffer, when the channel has
// already been torn down and no allocation should be made. This is
// not an error: it is the normal outcome of a race between a
// cancelled channel and data already in flight from the producer.
type Allocator interface {
	AllocatePooled(channel ChannelID) (buf *Buffer, ok bool)
	AllocateUnpooled(size int, dt DataType) *Buffer
}

// NetworkBufferPool is an Allocator backed by a fixed-size channel of
// reusable byte slices.
type NetworkBufferPool struct {
	pool    chan []byte
	bufsize int
	isLive  func(ChannelID) bool
}

// NewNetworkBufferPool creates a pool of poolsize buffers, each
// bufsize bytes. isLive, if non-nil, is consulted on every
// AllocatePooled call; a nil isLive means every channel is considered
// live.
func NewNetworkBufferPool(bufsize, poolsize int, isLive func(ChannelID) bool) *NetworkBufferPool {
	p := &NetworkBufferPool{
		pool:    make(chan []byte, poolsize),
		bufsize: bufsize,
		isLive:  isLive,
	}
	for i := 0; i < poolsize; i++ {
		p.pool <- make([]byte, bufsize)
	}
	return p
}

func (p *NetworkBufferPool) AllocatePooled(ch ChannelID) (*Buffer, bool) {
	if p.isLive != nil && !p.isLive(ch) {
		return nil, false
	}
	data := p.get()
	buf := &Buffer{Data: data, size: uint32(len(data))}
	buf.recycle = func() { p.put(data) }
	return buf, true
}

func (p *NetworkBufferPool) AllocateUnpooled(size int, dt DataType) *Buffer {
	data := make([]byte, size)
	buf := &Buffer{Data: data, size: uint32(size), DataType: dt}
	buf.recycle = func() {}
	return buf
}

func (p *NetworkBufferPool) get() []byte {
	select {
	case data := <-p.pool:
		if cap(data) < p.bufsize {
			data = make([]byte, p.bufsize)
		}
		return data[:p.bufsize]
	default:
		return make([]byte, p.bufsize)
	}
}

func (p *NetworkBufferPool) put(data []byte) {
	select {
	case p.pool <- data[:cap(data)]:
	default: // pool full, let GC collect it
	}
}
