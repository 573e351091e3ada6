// Package copier implements the full-duplex byte copy between a TCP
// connection and a QUIC stream that backs every tunneled connection,
// whichever direction (Out or In mode) it was opened in.
package copier

import (
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/quictun/quictund/pkg/shared"
)

// halfCloser is implemented by connection types that support closing just
// the write half without tearing down the read half: *net.TCPConn and QUIC
// send streams both do this.
type halfCloser interface {
	CloseWrite() error
}

// Copy pumps bytes in both directions between a and b until both directions
// have ended. Each direction is independent: when one side's reader returns
// EOF or an error, that direction half-closes its destination (if it
// supports CloseWrite) rather than tearing down the other direction. Copy
// returns once both directions have finished, logging any non-EOF errors
// scoped to the direction that produced them.
func Copy(a, b io.ReadWriteCloser) {
	CopyWithMetrics(a, b, nil, nil)
}

// CopyWithMetrics behaves like Copy but reports bytes copied in each
// direction to the supplied callbacks, used by the session's byte-transfer
// counters.
func CopyWithMetrics(a, b io.ReadWriteCloser, recordAToB, recordBToA func(int64)) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		pumpWithMetrics(b, a, "a->b", recordAToB)
	}()
	go func() {
		defer wg.Done()
		pumpWithMetrics(a, b, "b->a", recordBToA)
	}()

	wg.Wait()
}

func pumpWithMetrics(dst io.Writer, src io.Reader, direction string, record func(int64)) {
	buf := make([]byte, shared.CopyBufferSize)
	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 && record != nil {
				record(int64(nw))
			}
			if ew != nil {
				slog.Debug("byte copy write failed", slog.String("direction", direction), slog.String("error", ew.Error()))
				break
			}
			if nw != nr {
				slog.Debug("byte copy short write", slog.String("direction", direction))
				break
			}
		}
		if er != nil {
			if er != io.EOF {
				slog.Debug("byte copy read failed", slog.String("direction", direction), slog.String("error", er.Error()))
			}
			break
		}
	}

	if hc, ok := dst.(halfCloser); ok {
		_ = hc.CloseWrite()
		return
	}
	if c, ok := dst.(io.Closer); ok {
		_ = c.Close()
	}
}

var _ halfCloser = (*net.TCPConn)(nil)
