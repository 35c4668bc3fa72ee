package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/akamensky/argparse"
	"github.com/sirupsen/logrus"

	"go_echo_harness/addressing"
	"go_echo_harness/constants"
	"go_echo_harness/endpoint"
	"go_echo_harness/fileio"
	"go_echo_harness/transfer"
)

func main() {
	args := argparse.NewParser("echoclient", constants.Title)

	transport := args.Selector("t", "transport", []string{"datagram", "stream"},
		&argparse.Options{Required: true, Help: "Transport kind"})
	family := args.Selector("n", "family", []string{"ip", "xip"},
		&argparse.Options{Required: true, Help: "Address family"})
	file := args.String("f", "file", &argparse.Options{Required: true, Help: "File to transfer"})
	srv := args.String("s", "server", &argparse.Options{Help: "Server address (ip family)"})
	port := args.String("p", "port", &argparse.Options{Default: strconv.Itoa(constants.DEFAULT_PORT),
		Help: "Server port (ip family)"})
	cliFile := args.String("c", "client-addr", &argparse.Options{Help: "Client address file (xip family)"})
	srvFile := args.String("S", "server-addr", &argparse.Options{Help: "Server address file (xip family)"})
	chunk := args.Int("b", "chunksize", &argparse.Options{Default: constants.DEFAULT_CHUNK_SIZE,
		Help: "Bytes per chunk"})
	interval := args.Int("i", "interval", &argparse.Options{Default: constants.DEFAULT_CHECKPOINT,
		Help: "Chunks per checkpoint"})
	dscp := args.Int("d", "dscp", &argparse.Options{Default: constants.DEFAULT_DSCP,
		Help: "DSCP field for QoS"})
	mptcp := args.Flag("m", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})

	if err := args.Parse(os.Args); err != nil {
		usage(args, err)
	}

	var self, peer addressing.Value
	switch *family {
	case "ip":
		if *srv == "" {
			usage(args, nil)
		}
		var err error
		peer, err = addressing.ParseFlat(*srv, *port)
		if err != nil {
			logrus.WithError(err).Fatal("bad server address")
		}
		// Datagram clients bind the any-address at port 0 so the echo can
		// be attributed to a stable local endpoint.
		self, _ = addressing.ParseFlat("0.0.0.0", "0")
	case "xip":
		if *cliFile == "" || *srvFile == "" {
			usage(args, nil)
		}
		var err error
		self, err = addressing.ReadHierFile(*cliFile)
		if err != nil {
			logrus.WithError(err).Fatal("bad client address file")
		}
		peer, err = addressing.ReadHierFile(*srvFile)
		if err != nil {
			logrus.WithError(err).Fatal("bad server address file")
		}
	}

	cfg := endpoint.Config{DSCP: *dscp, MPTCP: *mptcp}
	session := &transfer.Session{ChunkSize: *chunk, Interval: *interval}

	logrus.WithFields(logrus.Fields{
		"transport": *transport,
		"family":    *family,
		"peer":      peer.String(),
		"file":      *file,
	}).Info("starting transfer")

	switch *transport {
	case "datagram":
		ep, err := endpoint.NewDatagram(self, cfg)
		if err != nil {
			logrus.WithError(err).Fatal("endpoint creation failed")
		}
		// The zero-length flush mark tells the echo server to answer with
		// everything it buffered since the last mark.
		session.Hook = func() {
			if err := ep.Send(nil, peer); err != nil {
				logrus.WithError(err).Fatal("flush mark send failed")
			}
		}
		if err := session.SendFileDatagram(ep, peer, *file); err != nil {
			logrus.WithError(err).Fatal("transfer failed")
		}
		ep.Close()
	case "stream":
		conn, err := endpoint.DialStream(peer, self, cfg)
		if err != nil {
			logrus.WithError(err).Fatal("connect failed")
		}
		if err := session.SendFileStream(conn, *file); err != nil {
			logrus.WithError(err).Fatal("transfer failed")
		}
		conn.Close()
	}

	report(*file)
}

// report quantifies loss by diffing source against mirror after the run.
func report(file string) {
	fmt.Fprintln(os.Stderr) // terminate any loss markers

	identical, missing, err := fileio.CompareFiles(file, fileio.MirrorPath(file))
	if err != nil {
		logrus.WithError(err).Fatal("mirror comparison failed")
	}
	if identical {
		logrus.WithField("crc32",
			hex.EncodeToString(fileio.GetFileChecksumCRC32(file))).Info("mirror matches source")
	} else {
		logrus.WithField("bytes_missing", missing).Warn("mirror differs from source")
	}
}

func usage(args *argparse.Parser, err error) {
	if err != nil {
		fmt.Print(args.Usage(err))
	}
	fmt.Fprintln(os.Stderr, "usage:\techoclient -t <datagram|stream> -n ip -s srv_addr -p port -f file")
	fmt.Fprintln(os.Stderr, "\techoclient -t <datagram|stream> -n xip -c cli_addr_file -S srv_addr_file -f file")
	os.Exit(1)
}
