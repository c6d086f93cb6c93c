package shuffle

import "fmt"
import "net"
import "runtime/debug"
import "strings"
import "sync/atomic"
import "time"
import "unsafe"

import "github.com/prataprc/gosettings"

// Transporter is the connection object a Transport drives. Any net.Conn
// satisfies it; tests substitute an in-memory pipe.
type Transporter interface {
	Read(b []byte) (n int, err error)
	Write(b []byte) (n int, err error)
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	Close() error
}

// txreq is one pending outbound frame, queued on txch and drained by
// doTx in batches.
type txreq struct {
	frame   []byte
	payload *Buffer
	flush   bool
	respch  chan error
}

// Transport owns one socket's worth of this protocol: a decode loop
// reading frames off the wire and dispatching them through a Router, a
// batching write loop, and the credit-contract bookkeeping the two
// share. One connection, one Transport.
type Transport struct {
	// statistics, kept 8-byte aligned; see Stat().
	nTx      uint64
	nTxbyte  uint64
	nFlushes uint64
	nRx      uint64
	nRxbyte  uint64
	nDropped uint64

	name       string
	conn       Transporter
	router     *Router
	alloc      Allocator
	decoder    *FrameDecoder
	txch       chan *txreq
	killch     chan struct{}
	settings   gosettings.Settings
	buffersize uint64
	batchsize  uint64
	chansize   uint64
	logprefix  string
}

// NewTransport wires conn, router and alloc together into a running
// Transport. Router decides what every decoded message means; alloc
// backs incoming BufferResponse payloads. setts, if nil, defaults to
// DefaultSettings().
func NewTransport(name string, conn Transporter, router *Router, alloc Allocator, setts gosettings.Settings) (*Transport, error) {
	if setts == nil {
		setts = DefaultSettings()
	}

	t := &Transport{
		name:       name,
		conn:       conn,
		router:     router,
		alloc:      alloc,
		decoder:    NewFrameDecoder(alloc),
		killch:     make(chan struct{}),
		settings:   setts,
		buffersize: setts.Uint64("buffersize"),
		batchsize:  setts.Uint64("batchsize"),
		chansize:   setts.Uint64("chansize"),
		logprefix:  fmt.Sprintf("SHUF[%v]", name),
	}
	t.txch = make(chan *txreq, t.chansize+t.batchsize)

	addtransport(name, t)
	go t.doTx()
	go t.doRx()
	return t, nil
}

// SendControl queues a non-payload-carrying message for transmission,
// blocking until it has been written (or the attempt has failed).
// Issuing a PartitionRequest registers the requested channel with
// this side's Router before the request goes out, so IsLive reports
// it live the moment the first BufferResponse for it can arrive; the
// remote end never round-trips an acknowledgement we could wait on
// instead.
func (t *Transport) SendControl(msg Message) error {
	if pr, ok := msg.(*PartitionRequest); ok {
		t.router.RegisterProducer(pr.ReceiverID, pr.InitialCredit)
	}
	req := &txreq{frame: EncodeFrame(msg), flush: true, respch: make(chan error, 1)}
	return t.enqueue(req)
}

// SendBufferResponse sends a data message on a producer channel,
// refusing if the channel's credit contract forbids it: paused,
// cancelled, or with no credit remaining. On success one unit of
// credit is consumed and buf is handed to the socket write without
// copying; the caller must not touch buf again.
func (t *Transport) SendBufferResponse(pc *ProducerChannel, m *BufferResponse) error {
	if pc.IsCancelled() {
		return newProtoErr(KindContractViolation, &pc.id, fmt.Errorf("channel cancelled"))
	}
	if pc.IsPaused() {
		return newProtoErr(KindContractViolation, &pc.id, fmt.Errorf("channel paused"))
	}
	if !pc.TryConsume() {
		return newProtoErr(KindContractViolation, &pc.id, fmt.Errorf("no credit remaining"))
	}

	m.SequenceNumber = pc.NextSequence()
	m.Backlog = pc.Backlog()
	req := &txreq{frame: EncodeBufferResponseHeader(m), payload: m.Buffer, flush: true, respch: make(chan error, 1)}
	return t.enqueue(req)
}

func (t *Transport) enqueue(req *txreq) error {
	select {
	case t.txch <- req:
	case <-t.killch:
		return newProtoErr(KindIOFailure, nil, fmt.Errorf("%v transport closed", t.logprefix))
	}
	select {
	case err := <-req.respch:
		return err
	case <-t.killch:
		return newProtoErr(KindIOFailure, nil, fmt.Errorf("%v transport closed", t.logprefix))
	}
}

// doTx batches queued frames and flushes them to the socket: writes
// are batched up to batchsize frames, or sooner whenever a caller
// asks for an immediate flush.
func (t *Transport) doTx() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("%v doTx() panic: %v\n", t.logprefix, r)
			log.Errorf("\n%s", debug.Stack())
			go t.Close()
		}
	}()

	batch := make([]*txreq, 0, t.batchsize)

	drain := func() {
		atomic.AddUint64(&t.nFlushes, 1)
		var err error
		for _, req := range batch {
			if err != nil {
				if req.payload != nil {
					req.payload.Recycle()
				}
				req.respch <- err
				continue
			}
			n, werr := t.conn.Write(req.frame)
			if werr == nil && req.payload != nil {
				var pn int64
				pn, werr = writePayload(t.conn, req.payload)
				n += int(pn)
			}
			if req.payload != nil {
				req.payload.Recycle()
			}
			if werr != nil {
				err = newProtoErr(KindIOFailure, nil, werr)
			} else {
				atomic.AddUint64(&t.nTx, 1)
				atomic.AddUint64(&t.nTxbyte, uint64(n))
			}
			req.respch <- err
		}
		batch = batch[:0]
	}

	log.Infof("%v doTx() started ...\n", t.logprefix)
loop:
	for {
		select {
		case req := <-t.txch:
			batch = append(batch, req)
			if req.flush || uint64(len(batch)) >= t.batchsize {
				drain()
			}
		case <-t.killch:
			break loop
		}
	}
	log.Infof("%v doTx() ... stopped\n", t.logprefix)
}

// doRx reads off the socket in arbitrary-sized chunks and feeds them
// to the FrameDecoder, dispatching every decoded message through
// Router. Chunks can split or straddle frame boundaries arbitrarily;
// FrameDecoder.Feed handles the reassembly.
func (t *Transport) doRx() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("%v doRx() panic: %v\n", t.logprefix, r)
			log.Errorf("\n%s", debug.Stack())
		}
		go t.Close()
	}()

	log.Infof("%v doRx() started ...\n", t.logprefix)
	chunk := make([]byte, t.buffersize)
	for {
		n, err := t.conn.Read(chunk)
		if n > 0 {
			atomic.AddUint64(&t.nRx, 1)
			atomic.AddUint64(&t.nRxbyte, uint64(n))
			events, ferr := t.decoder.Feed(chunk[:n])
			for _, ev := range events {
				if ev.Err != nil {
					atomic.AddUint64(&t.nDropped, 1)
					log.Warnf("%v decode error: %v\n", t.logprefix, ev.Err)
					continue
				}
				t.router.Dispatch(ev.Msg)
			}
			if ferr != nil {
				log.Errorf("%v fatal decode error: %v\n", t.logprefix, ferr)
				t.router.Shutdown(ferr)
				break
			}
		}
		if err != nil {
			if err != nil && !isConnClosed(err) {
				log.Errorf("%v doRx() read: %v\n", t.logprefix, err)
			}
			break
		}
	}
	log.Infof("%v doRx() ... stopped\n", t.logprefix)
}

// FlushPeriod periodically forces a flush of whatever is batched on
// txch, for connections carrying low enough traffic that batchsize is
// rarely reached on its own.
func (t *Transport) FlushPeriod(period time.Duration) {
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				req := &txreq{frame: nil, flush: true, respch: make(chan error, 1)}
				select {
				case t.txch <- req:
					<-req.respch
				case <-t.killch:
					return
				}
			case <-t.killch:
				return
			}
		}
	}()
}

// Close tears the transport down: it stops doTx/doRx, removes the
// transport from the process-wide registry and closes the underlying
// connection.
func (t *Transport) Close() error {
	defer func() {
		recover() // closing an already-closed killch
	}()
	close(t.killch)
	deltransport(t.name)
	log.Infof("%v ... closed\n", t.logprefix)
	return t.conn.Close()
}

// IsClosed reports whether Close has been called on this transport.
func (t *Transport) IsClosed() bool {
	select {
	case <-t.killch:
		return true
	default:
		return false
	}
}

// Name returns the transport's name, as registered with NewTransport.
func (t *Transport) Name() string { return t.name }

// LocalAddr of the underlying connection.
func (t *Transport) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// RemoteAddr of the underlying connection.
func (t *Transport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

// Stat returns this transport's counters.
func (t *Transport) Stat() map[string]uint64 {
	return map[string]uint64{
		"n_tx":       atomic.LoadUint64(&t.nTx),
		"n_txbyte":   atomic.LoadUint64(&t.nTxbyte),
		"n_flushes":  atomic.LoadUint64(&t.nFlushes),
		"n_rx":       atomic.LoadUint64(&t.nRx),
		"n_rxbyte":   atomic.LoadUint64(&t.nRxbyte),
		"n_dropped":  atomic.LoadUint64(&t.nDropped),
	}
}

// process-wide name -> *Transport registry. Reads go through an
// atomically-swapped map pointer so Lookup never blocks on a mutex.
var transports = unsafe.Pointer(&map[string]*Transport{})

func addtransport(name string, t *Transport) {
	for {
		op := atomic.LoadPointer(&transports)
		oldm := (*map[string]*Transport)(op)
		newm := make(map[string]*Transport, len(*oldm)+1)
		for k, v := range *oldm {
			newm[k] = v
		}
		newm[name] = t
		if atomic.CompareAndSwapPointer(&transports, op, unsafe.Pointer(&newm)) {
			return
		}
	}
}

func deltransport(name string) {
	for {
		op := atomic.LoadPointer(&transports)
		oldm := (*map[string]*Transport)(op)
		if _, ok := (*oldm)[name]; !ok {
			return
		}
		newm := make(map[string]*Transport, len(*oldm))
		for k, v := range *oldm {
			if k != name {
				newm[k] = v
			}
		}
		if atomic.CompareAndSwapPointer(&transports, op, unsafe.Pointer(&newm)) {
			return
		}
	}
}

// Lookup returns the registered Transport for name, if any.
func Lookup(name string) (*Transport, bool) {
	op := atomic.LoadPointer(&transports)
	m := (*map[string]*Transport)(op)
	t, ok := (*m)[name]
	return t, ok
}

// Stats returns consolidated counters across every live Transport.
func Stats() map[string]uint64 {
	totals := map[string]uint64{}
	op := atomic.LoadPointer(&transports)
	m := (*map[string]*Transport)(op)
	for _, t := range *m {
		for k, v := range t.Stat() {
			totals[k] += v
		}
	}
	return totals
}

// isConnClosed reports whether err is the expected result of reading
// or writing on a connection this side already closed, so doRx
// can shut down quietly instead of logging an error.
func isConnClosed(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*net.OpError); ok && (e.Op == "close" || e.Op == "shutdown") {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
