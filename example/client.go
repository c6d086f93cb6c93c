package main

import "log"
import "net"

import "github.com/golang/snappy"
import "github.com/google/uuid"

import "github.com/bnclabs/shuffle"

// runConsumer dials the producer, opens a channel for one partition's
// only subpartition, and logs every buffer it receives until the
// producer signals end-of-partition.
func runConsumer() {
	conn, err := net.Dial("tcp", options.addr)
	if err != nil {
		fatalf("dial: %v", err)
	}

	receiverID := shuffle.ChannelID(uuid.New())

	done := make(chan struct{})
	var trans *shuffle.Transport
	router := shuffle.NewRouter(shuffle.Handlers{
		OnBufferResponse: func(m *shuffle.BufferResponse) {
			if m.Buffer == nil {
				log.Printf("buffer %d: channel gone, no payload", m.SequenceNumber)
				return
			}
			data := m.Buffer.Bytes()
			if m.Buffer.IsCompressed {
				decoded, err := snappy.Decode(nil, data)
				if err != nil {
					log.Printf("buffer %d: snappy decode: %v", m.SequenceNumber, err)
				} else {
					data = decoded
				}
			}
			log.Printf("buffer %d: %d bytes (type %v)", m.SequenceNumber, len(data), m.Buffer.DataType)
			m.Buffer.Recycle()

			grant := &shuffle.AddCredit{Credit: 1, ReceiverID: receiverID}
			if err := trans.SendControl(grant); err != nil {
				log.Printf("buffer %d: add credit: %v", m.SequenceNumber, err)
			}

			if m.Buffer.DataType.IsEndOfStream() {
				close(done)
			}
		},
		OnError: func(e *shuffle.ErrorResponse) {
			log.Printf("error from producer: %v", e)
			if e.IsFatal() {
				close(done)
			}
		},
	})
	alloc := shuffle.NewNetworkBufferPool(64*1024, 64, router.IsLive)

	trans, err = shuffle.NewTransport("consumer", conn, router, alloc, nil)
	if err != nil {
		fatalf("new transport: %v", err)
	}
	defer trans.Close()

	var partition shuffle.PartitionID
	partition.IntermediatePartition = uuid.New()
	partition.ProducerAttempt = uuid.New()

	req := &shuffle.PartitionRequest{
		Partition:     partition,
		Subpartitions: shuffle.NewSubpartitionIndexSet(0),
		ReceiverID:    receiverID,
		InitialCredit: int32(options.credit),
	}
	if err := trans.SendControl(req); err != nil {
		fatalf("send partition request: %v", err)
	}

	<-done
	log.Printf("consumer done")
}
