package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/akeylesspro/nx-data-socket/lib/relay"
	"github.com/akeylesspro/nx-data-socket/lib/store"
	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/akeylesspro/nx-data-socket/rpc/serializer"
	"github.com/akeylesspro/nx-data-socket/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/oklog/ulid/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

var Logger = logger.GetLogger("rpc")

const (
	// shutdownTimeout bounds the graceful shutdown of the HTTP server
	shutdownTimeout = 10 * time.Second
	// defaultWorkersPerConn is used if ServerConfig.WorkersPerConn is not set
	defaultWorkersPerConn = 32
)

var (
	connectionsTotal    = metrics.NewCounter("nxds_connections_total")
	invalidMessageTotal = metrics.NewCounter("nxds_invalid_messages_total")
)

// RPCServer serves the relay to clients over one transport. It owns the HTTP
// server, the connections and the relay; the store is injected and owned by
// the caller.
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	store      store.IStore
	relay      *relay.Relay
	conns      *xsync.MapOf[string, *connection]
	handler    http.Handler
	baseCtx    context.Context
}

// NewRPCServer creates a new RPC server
// It takes a config, transport, serializer and the backing store as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		ws.NewWSServerTransport(),
//		serializer.NewJSONSerializer(),
//		st,
//	)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	st store.IStore,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	s := &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		store:      st,
		relay: relay.New(st, relay.Config{
			DataUpdatePrefix:   config.DataUpdatePrefix,
			WriteRequestPrefix: config.WriteRequestPrefix,
		}),
		conns:   xsync.NewMapOf[string, *connection](),
		baseCtx: context.Background(),
	}

	// Configure the transport layer and the http routes
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.transport.Mount(mux, config, serializer.Binary())
	s.transport.RegisterHandler(s.handleConnection)

	s.handler = mux
	if config.LogLevel == "debug" {
		s.handler = loggerMiddleware(mux)
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())
	return s
}

// Relay returns the relay served by the server
func (s *RPCServer) Relay() *relay.Relay {
	return s.relay
}

// Handler returns the HTTP handler with all routes of the server
func (s *RPCServer) Handler() http.Handler {
	return s.handler
}

// Serve listens on the configured endpoint and serves until the context is done
// or a component fails.
func (s *RPCServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Endpoint)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves HTTP on ln and runs the transport and the change listener
// until the context is done or one of them fails. On return all client
// connections are closed. The store is not closed.
func (s *RPCServer) ServeListener(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	s.baseCtx = gctx

	// Change propagation
	g.Go(func() error {
		return s.relay.Listen(gctx)
	})

	// Client transport
	g.Go(func() error {
		return s.transport.Listen(gctx, s.config)
	})

	// HTTP api
	g.Go(func() error {
		Logger.Infof("HTTP server listening on %s", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Shutdown
	g.Go(func() error {
		<-gctx.Done()
		Logger.Infof("shutting down, closing %d connections", s.conns.Size())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		s.closeConnections()
		return err
	})

	err := g.Wait()
	Logger.Infof("server stopped")
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection runs one client connection: it registers a session, reads
// requests and dispatches each in its own goroutine until the connection ends.
func (s *RPCServer) handleConnection(conn transport.IConn) {
	id := ulid.Make().String()
	c := newConnection(id, conn, s.serializer, s.config)

	session, err := s.relay.Connect(id, c)
	if err != nil {
		Logger.Errorf("rejecting connection from %s: %v", conn.RemoteAddr(), err)
		return
	}
	s.conns.Store(id, c)
	connectionsTotal.Inc()
	Logger.Infof("[session %s] connected from %s via %s", id, conn.RemoteAddr(), s.transport.GetName())

	defer func() {
		s.conns.Delete(id)
		c.close()
		s.relay.Disconnect(session)
		Logger.Infof("[session %s] disconnected", id)
	}()

	go c.writeLoop()

	workers := s.config.WorkersPerConn
	if workers < 1 {
		workers = defaultWorkersPerConn
	}
	// The buffered channel acts as a counting semaphore
	workerSemaphore := make(chan struct{}, workers)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				Logger.Debugf("[session %s] connection closed by client", id)
			case errors.Is(err, transport.ErrMessageTooLarge):
				Logger.Warningf("[session %s] message too large, closing connection", id)
			default:
				Logger.Debugf("[session %s] read failed: %v", id, err)
			}
			return
		}

		var msg common.Message
		if err := s.serializer.Deserialize(data, &msg); err != nil {
			invalidMessageTotal.Inc()
			Logger.Warningf("[session %s] failed to deserialize message: %v", id, err)
			continue
		}
		if msg.MsgType != common.MsgTRequest {
			invalidMessageTotal.Inc()
			Logger.Warningf("[session %s] ignoring message of type %s", id, msg.MsgType)
			continue
		}

		// Acquire a slot (blocks reading if too many requests are in flight)
		workerSemaphore <- struct{}{}
		go func(msg common.Message) {
			defer func() { <-workerSemaphore }()
			s.relay.Dispatch(s.baseCtx, session, msg.Event, msg.Payload, c.ack(msg.ID))
		}(msg)
	}
}

// closeConnections closes all client connections
func (s *RPCServer) closeConnections() {
	s.conns.Range(func(_ string, c *connection) bool {
		c.close()
		return true
	})
}
