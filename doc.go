// Package shuffle implements the shuffle network wire protocol: a
// length-delimited, credit-based, multiplexed binary protocol carried
// over one TCP connection between a data producer and a data
// consumer.
//
// channel ids, identify one InputChannel on the consuming side of a
// connection. They are opaque 16-byte values minted by the embedder;
// this package only ever copies them.
//
// messages, are the twelve-member catalog implementing the Message
// interface declared in message.go. Message ids occupy a single byte,
// 0 through 11; no further ids are reserved.
//
// credit, governs how many buffers a producer channel may still send
// before it must wait for more. AddCredit grants credit, PartitionRequest
// grants an initial amount, and BufferResponse consumes one unit per
// send; see credit.go.
//
// transport instantiation steps:
//
//	router := NewRouter(Handlers{OnBufferResponse: onBuffer, OnError: onError})
//	alloc := NewNetworkBufferPool(32*1024, 256, router.IsLive)
//	t, err := NewTransport("peer-name", conn, router, alloc, nil)
//	t.FlushPeriod(10 * time.Millisecond) // optional
package shuffle
