package ingest

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Philipp01105/logging-framework/internal/ringbuffer"
)

// acceptTimeout bounds each blocking Accept call so the loop observes a
// shutdown signal promptly (spec.md §4.5).
const acceptTimeout = 5 * time.Second

// handlerShutdownBudget is how long Shutdown waits for in-flight connection
// handlers to exit before giving up (spec.md §5).
const handlerShutdownBudget = 10 * time.Second

// ConnCounter receives connection-open/close notifications, used to drive
// the active-connections gauge without the ingest package importing the
// metrics package directly.
type ConnCounter interface {
	ConnectionOpened()
	ConnectionClosed()
}

type noopConnCounter struct{}

func (noopConnCounter) ConnectionOpened() {}
func (noopConnCounter) ConnectionClosed() {}

// Acceptor owns the listening socket and admits up to maxClients
// connections, handing each off to its own connHandler goroutine
// (spec.md §4.5).
type Acceptor struct {
	ln       *net.TCPListener
	sema     *semaphore.Weighted
	ring     *ringbuffer.Ring
	log      *zap.Logger
	counter  ConnCounter
	stopCh   chan struct{}
	handlers sync.WaitGroup
}

// NewAcceptor binds port and returns an Acceptor ready to Serve. A bind
// failure here is fatal to the caller (spec.md §7): the caller should exit
// the process non-zero.
func NewAcceptor(port int, maxClients int, ring *ringbuffer.Ring, log *zap.Logger, counter ConnCounter) (*Acceptor, error) {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{Port: port})
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if counter == nil {
		counter = noopConnCounter{}
	}
	return &Acceptor{
		ln:      ln,
		sema:    semaphore.NewWeighted(int64(maxClients)),
		ring:    ring,
		log:     log,
		counter: counter,
		stopCh:  make(chan struct{}),
	}, nil
}

// Addr returns the bound listener address, mainly for tests that bind to
// port 0.
func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }

// Serve runs the accept loop until Shutdown is called. It never returns an
// error for a graceful shutdown.
func (a *Acceptor) Serve() {
	for {
		select {
		case <-a.stopCh:
			return
		default:
		}

		a.ln.SetDeadline(time.Now().Add(acceptTimeout))
		conn, err := a.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-a.stopCh:
				return
			default:
				a.log.Warn("acceptor: accept error", zap.Error(err))
				continue
			}
		}

		if !a.sema.TryAcquire(1) {
			// Admission cap reached: close immediately without a reply,
			// per spec.md §4.5.
			conn.Close()
			continue
		}

		a.counter.ConnectionOpened()
		a.handlers.Add(1)
		go a.runHandler(conn)
	}
}

func (a *Acceptor) runHandler(conn net.Conn) {
	defer a.handlers.Done()
	defer a.sema.Release(1)
	defer a.counter.ConnectionClosed()

	h := newConnHandler(conn, a.ring, a.log)
	h.serve(a.stopCh)
}

// Shutdown closes the listening socket, signals every active handler to
// stop, and waits (bounded) for them to exit (spec.md §4.5, §5).
func (a *Acceptor) Shutdown() {
	close(a.stopCh)
	a.ln.Close()

	done := make(chan struct{})
	go func() {
		a.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(handlerShutdownBudget):
		a.log.Warn("acceptor: shutdown wait budget exceeded, some handlers forced closed")
	}
}
