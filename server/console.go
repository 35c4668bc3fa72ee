package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// counters tracks what the server has echoed, for the operator console.
type counters struct {
	checkpoints atomic.Int64
	bytes       atomic.Int64
}

// console runs the line-buffered operator loop. It is logically independent
// of any transfer in flight.
func console(stats *counters) {
	in := bufio.NewReader(os.Stdin)
	for {
		cmd, ok := readCommand(in)
		if !ok {
			// Operator pressed Ctrl+D; keep serving.
			return
		}
		switch cmd {
		case "stats":
			fmt.Printf("checkpoints=%d bytes=%d\n", stats.checkpoints.Load(), stats.bytes.Load())
		case "quit":
			os.Exit(0)
		default:
			fmt.Println("commands: stats, quit")
		}
	}
}

// readCommand returns the next non-empty input line with the newline shaved
// off. ok is false once input ends.
func readCommand(in *bufio.Reader) (cmd string, ok bool) {
	for {
		line, err := in.ReadString('\n')
		if n := len(line); n > 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		if line != "" {
			return line, true
		}
		if err == io.EOF {
			return "", false
		}
		if err != nil {
			logrus.WithError(err).Fatal("console read failed")
		}
		// Skip empty commands.
	}
}
