package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/akamensky/argparse"
	"github.com/sirupsen/logrus"

	"go_echo_harness/addressing"
	"go_echo_harness/constants"
	"go_echo_harness/endpoint"
	"go_echo_harness/pipe"
)

func main() {
	args := argparse.NewParser("echoserver", constants.Title)

	transport := args.Selector("t", "transport", []string{"datagram", "stream"},
		&argparse.Options{Required: true, Help: "Transport kind"})
	family := args.Selector("n", "family", []string{"ip", "xip"},
		&argparse.Options{Required: true, Help: "Address family"})
	listen := args.String("l", "listen", &argparse.Options{Default: "0.0.0.0",
		Help: "Listen address (ip family)"})
	port := args.String("p", "port", &argparse.Options{Default: strconv.Itoa(constants.DEFAULT_PORT),
		Help: "Listen port (ip family)"})
	addrFile := args.String("a", "addr-file", &argparse.Options{Help: "Own address file (xip family)"})
	mode := args.Selector("m", "mode", []string{"echo", "relay"},
		&argparse.Options{Default: "echo", Help: "Serve echoes or relay a stream"})
	target := args.String("r", "relay-target", &argparse.Options{Help: "Relay destination host:port"})
	codec := args.Selector("z", "codec", []string{"none", "compress", "decompress"},
		&argparse.Options{Default: "none", Help: "LZ4 handling for relayed bytes"})
	dscp := args.Int("d", "dscp", &argparse.Options{Default: constants.DEFAULT_DSCP,
		Help: "DSCP field for QoS"})

	if err := args.Parse(os.Args); err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	// Servers always force-bind their own address.
	var self addressing.Value
	switch *family {
	case "ip":
		var err error
		self, err = addressing.ParseFlat(*listen, *port)
		if err != nil {
			logrus.WithError(err).Fatal("bad listen address")
		}
	case "xip":
		if *addrFile == "" {
			fmt.Fprintln(os.Stderr, "usage:\techoserver -t <datagram|stream> -n ip -l addr -p port")
			fmt.Fprintln(os.Stderr, "\techoserver -t <datagram|stream> -n xip -a addr_file")
			os.Exit(1)
		}
		var err error
		self, err = addressing.ReadHierFile(*addrFile)
		if err != nil {
			logrus.WithError(err).Fatal("bad address file")
		}
	}

	cfg := endpoint.Config{DSCP: *dscp}
	stats := new(counters)

	logrus.WithFields(logrus.Fields{
		"transport": *transport,
		"family":    *family,
		"addr":      self.String(),
		"mode":      *mode,
	}).Info("serving")

	go console(stats)

	switch {
	case *mode == "relay":
		if *target == "" {
			logrus.Fatal("relay mode needs --relay-target")
		}
		ln, err := endpoint.ListenStream(self, cfg)
		if err != nil {
			logrus.WithError(err).Fatal("listen failed")
		}
		relay(ln, *target, *codec)
	case *transport == "datagram":
		ep, err := endpoint.NewDatagram(self, cfg)
		if err != nil {
			logrus.WithError(err).Fatal("endpoint creation failed")
		}
		serveDatagram(ep, stats)
	default:
		ln, err := endpoint.ListenStream(self, cfg)
		if err != nil {
			logrus.WithError(err).Fatal("listen failed")
		}
		serveStream(ln, stats)
	}
}

// serveDatagram accumulates payload datagrams per sender and answers each
// zero-length flush mark with everything buffered since the last one, as a
// single datagram. That single reply is what the client's sized checkpoint
// receive expects.
func serveDatagram(ep endpoint.Datagram, stats *counters) {
	pending := make(map[string][]byte)
	buf := make([]byte, constants.SERVER_RECV_BUFFER)
	for {
		n, from, err := ep.RecvFrom(buf)
		if err != nil {
			logrus.WithError(err).Fatal("datagram receive failed")
		}

		key := from.String()
		if n > 0 {
			pending[key] = append(pending[key], buf[:n]...)
			continue
		}

		// Flush mark.
		out := pending[key]
		delete(pending, key)
		if err := ep.Send(out, from); err != nil {
			logrus.WithError(err).Fatal("echo send failed")
		}
		stats.checkpoints.Add(1)
		stats.bytes.Add(int64(len(out)))
	}
}

// serveStream echoes accepted connections back onto themselves, one peer at a
// time, until each peer closes.
func serveStream(ln endpoint.StreamListener, stats *counters) {
	for {
		conn, peer, err := ln.Accept()
		if err != nil {
			logrus.WithError(err).Fatal("accept failed")
		}
		logrus.WithField("peer", peer.String()).Info("stream peer connected")

		echoed := pipe.Copy(conn, conn)
		conn.Close()

		stats.checkpoints.Add(1)
		stats.bytes.Add(echoed)
		logrus.WithField("bytes", echoed).Info("stream peer done")
	}
}

// relay forwards one accepted stream to the target, optionally running the
// bytes through LZ4 on the way. Pure byte relay; no chunking, no
// verification.
func relay(ln endpoint.StreamListener, target, codec string) {
	conn, peer, err := ln.Accept()
	if err != nil {
		logrus.WithError(err).Fatal("accept failed")
	}
	logrus.WithField("peer", peer.String()).Info("relaying")

	out, err := net.Dial("tcp", target)
	if err != nil {
		logrus.WithError(err).Fatal("relay target unreachable")
	}

	var moved int64
	switch codec {
	case "compress":
		moved = pipe.CopyCompress(out, conn)
	case "decompress":
		moved = pipe.CopyDecompress(out, conn)
	default:
		moved = pipe.Copy(out, conn)
	}

	out.Close()
	conn.Close()
	logrus.WithField("bytes", moved).Info("relay done")
}
