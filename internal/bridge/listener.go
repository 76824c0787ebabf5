package bridge

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"sync"

	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/logging"
	"github.com/decky-localsend/deckysend/internal/store"
)

// Listener accepts backend connections on a unix socket and feeds decoded
// events to the bridge. The backend writes one JSON object per line;
// malformed lines are logged and skipped, never fatal.
type Listener struct {
	socketPath string
	sink       chan<- events.BackendEvent
	store      *store.Store
	logger     *logging.Logger

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewListener creates a listener for socketPath feeding sink.
func NewListener(socketPath string, sink chan<- events.BackendEvent, st *store.Store) *Listener {
	return &Listener{
		socketPath: socketPath,
		sink:       sink,
		store:      st,
		logger:     logging.NewLogger("listener"),
	}
}

// Start binds the socket and begins accepting connections. A stale socket
// file from a previous run is removed first.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return nil
	}

	if err := os.Remove(l.socketPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	listener, err := net.Listen("unix", l.socketPath)
	if err != nil {
		return err
	}
	l.listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go l.acceptLoop(ctx, listener)

	l.logger.Info().Str("socket", l.socketPath).Msg("Listening for backend events")
	return nil
}

// Stop closes the socket and waits for all connection handlers to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	listener, cancel := l.listener, l.cancel
	l.listener, l.cancel = nil, nil
	l.mu.Unlock()
	if listener == nil {
		return
	}
	cancel()
	listener.Close()
	l.wg.Wait()
	os.Remove(l.socketPath)
	l.store.SetBackendRunning(false)
}

func (l *Listener) acceptLoop(ctx context.Context, listener net.Listener) {
	defer l.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Warn().Err(err).Msg("Accept failed")
			continue
		}
		l.store.SetBackendRunning(true)
		l.wg.Add(1)
		go l.handleConn(ctx, conn)
	}
}

func (l *Listener) handleConn(ctx context.Context, conn net.Conn) {
	defer l.wg.Done()
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := events.DecodeBackendEvent(line)
		if err != nil {
			l.logger.Warn().Err(err).Msg("Dropping malformed backend event")
			continue
		}
		select {
		case l.sink <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		l.logger.Warn().Err(err).Msg("Backend connection read error")
	}
}
