package echo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/0xa1bed0/echosrv/internal/logs"
	"github.com/0xa1bed0/echosrv/internal/networking/msgqueue"
	"github.com/0xa1bed0/echosrv/internal/networking/transport"
)

// handleConnection runs the read/echo cycle for one client until the
// peer closes the connection or an I/O error occurs. It owns conn and
// producer and releases both on return.
func (l *acceptLoop) handleConnection(conn net.Conn, producer *msgqueue.Producer[string]) {
	peer := conn.RemoteAddr().String()
	l.stats.active.Add(1)
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("connection %s: handler panic: %v", peer, r)
		}
		producer.Release()
		conn.Close()
		l.stats.active.Add(-1)
	}()

	logs.Debugf("incoming connection %s", peer)

	reader := bufio.NewReaderSize(conn, readBufferSize(l.maxLine))
	writer := bufio.NewWriter(conn)

	for {
		line, readErr := readLine(reader, l.maxLine)

		// A trailing fragment without '\n' is still a line when the peer
		// closes right after it.
		if len(line) > 0 {
			if err := l.processLine(peer, line, producer, writer); err != nil {
				logConnError(peer, "couldn't write back to client", err)
				return
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				logs.Debugf("client %s closed connection", peer)
			} else {
				logConnError(peer, "reading message from client failed", readErr)
			}
			return
		}
	}
}

// processLine queues, observes and echoes one line. The hook runs before
// the echo is written.
func (l *acceptLoop) processLine(peer, line string, producer *msgqueue.Producer[string], writer *bufio.Writer) error {
	l.stats.received.Add(1)

	if err := producer.TryPush(line); err != nil {
		l.stats.dropped.Add(1)
		logs.Debugf("couldn't queue message from %s: %v", peer, err)
	}

	if l.hook != nil {
		l.hook.OnMessage(peer, line)
	}

	if _, err := writer.WriteString(line); err != nil {
		return err
	}
	return writer.Flush()
}

// readBufferSize caps the read buffer at maxLine, so an overlong line
// surfaces as bufio.ErrBufferFull while the peer is still sending.
func readBufferSize(maxLine int) int {
	const defaultSize = 4096
	if maxLine <= 0 || maxLine > defaultSize {
		return defaultSize
	}
	return maxLine
}

// readLine reads up to and including the next '\n'. Lines longer than
// max bytes fail with ErrLineTooLong; max <= 0 means no limit.
func readLine(r *bufio.Reader, max int) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if max > 0 && len(line)+len(chunk) > max {
			return "", fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, max)
		}
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(line), err
	}
}

func logConnError(peer, what string, err error) {
	if transport.IsExpectedCloseError(err) {
		logs.Debugf("client %s: %s: %v", peer, what, err)
		return
	}
	logs.Warnf("client %s: %s: %v", peer, what, err)
}

func isListenerClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
