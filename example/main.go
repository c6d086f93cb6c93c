package main

import "flag"
import "fmt"
import "log"
import "os"
import "runtime"
import "time"

var options struct {
	cpu  int
	addr string

	server bool
	client bool

	// producer-side options
	buffers   int
	payload   int
	compress  bool

	// consumer-side options
	credit int
}

func argParse() {
	flag.IntVar(&options.cpu, "cpu", runtime.NumCPU(), "GOMAXPROCS")
	flag.StringVar(&options.addr, "addr", "127.0.0.1:9999", "address to listen on / dial")
	flag.BoolVar(&options.server, "server", false, "run as the producer side")
	flag.BoolVar(&options.client, "client", false, "run as the consumer side")
	flag.IntVar(&options.buffers, "buffers", 8, "number of buffers the producer sends")
	flag.IntVar(&options.payload, "payload", 4096, "payload size, in bytes, per buffer")
	flag.BoolVar(&options.compress, "compress", false, "snappy-compress each buffer before sending")
	flag.IntVar(&options.credit, "credit", 4, "initial credit the consumer grants")
	flag.Parse()

	runtime.GOMAXPROCS(options.cpu)
}

func main() {
	argParse()
	switch {
	case options.server:
		runProducer()
	case options.client:
		runConsumer()
	default:
		fmt.Fprintln(os.Stderr, "usage: example -server|-client -addr host:port")
		os.Exit(1)
	}
	time.Sleep(100 * time.Millisecond)
}

func fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
