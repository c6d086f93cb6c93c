package main

import "log"
import "net"

import "github.com/golang/snappy"
import "github.com/google/uuid"

import "github.com/bnclabs/shuffle"

// runProducer listens for a single consumer connection, honors its
// PartitionRequest, and streams options.buffers buffers of payload
// back, each optionally snappy-compressed.
func runProducer() {
	lis, err := net.Listen("tcp", options.addr)
	if err != nil {
		fatalf("listen: %v", err)
	}
	log.Printf("producer listening on %v", options.addr)

	conn, err := lis.Accept()
	if err != nil {
		fatalf("accept: %v", err)
	}

	done := make(chan shuffle.ChannelID, 1)
	router := shuffle.NewRouter(shuffle.Handlers{
		OnPartitionRequest: func(req *shuffle.PartitionRequest) {
			log.Printf("got partition request from %v, credit %d", req.ReceiverID, req.InitialCredit)
			done <- req.ReceiverID
		},
		OnAddCredit: func(a *shuffle.AddCredit) {
			log.Printf("credit grant %d on %v", a.Credit, a.ReceiverID)
		},
		OnCancelPartitionRequest: func(c *shuffle.CancelPartitionRequest) {
			log.Printf("channel %v cancelled", c.ReceiverID)
		},
	})
	alloc := shuffle.NewNetworkBufferPool(64*1024, 64, router.IsLive)

	trans, err := shuffle.NewTransport("producer", conn, router, alloc, nil)
	if err != nil {
		fatalf("new transport: %v", err)
	}
	defer trans.Close()

	partition := shuffle.PartitionID{
		IntermediatePartition: uuid.New(),
		ProducerAttempt:       uuid.New(),
	}
	log.Printf("serving partition %v", partition)

	receiver := <-done
	pc, ok := router.Producer(receiver)
	if !ok {
		fatalf("producer channel for %v never registered", receiver)
	}

	for i := 0; i < options.buffers; i++ {
		payload := make([]byte, options.payload)
		for j := range payload {
			payload[j] = byte(i + j)
		}
		dt := shuffle.DataTypeDataBuffer
		if i == options.buffers-1 {
			dt = shuffle.DataTypeEndOfPartition
		}

		data := payload
		compressed := false
		if options.compress {
			data = snappy.Encode(nil, payload)
			compressed = true
		}

		buf := alloc.AllocateUnpooled(len(data), dt)
		copy(buf.Data, data)
		buf.IsCompressed = compressed

		msg := &shuffle.BufferResponse{
			ReceiverID:     receiver,
			SubpartitionID: 0,
			Buffer:         buf,
		}

		if err := trans.SendBufferResponse(pc, msg); err != nil {
			log.Printf("send buffer %d: %v (waiting for more credit)", i, err)
			i--
			continue
		}
		log.Printf("sent buffer %d (%d bytes, compressed=%v)", i, len(data), compressed)
	}
}
