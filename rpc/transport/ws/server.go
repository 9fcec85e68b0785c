package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/akeylesspro/nx-data-socket/rpc/transport"
	"github.com/gorilla/websocket"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

// DefaultSocketPath is the HTTP path clients connect to
const DefaultSocketPath = "/api/data-socket/connect"

// NewWSServerTransport creates a websocket server transport. It is served by the
// server's HTTP mux, see Mount.
func NewWSServerTransport() transport.IRPCServerTransport {
	return &wsServerTransport{}
}

type wsServerTransport struct {
	handler  transport.ConnHandleFunc
	upgrader websocket.Upgrader
	config   common.ServerConfig
	binary   bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *wsServerTransport) RegisterHandler(handler transport.ConnHandleFunc) {
	t.handler = handler
}

func (t *wsServerTransport) GetName() string {
	return "ws"
}

func (t *wsServerTransport) Mount(mux *http.ServeMux, config common.ServerConfig, binary bool) {
	t.config = config
	t.binary = binary
	t.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(config.Transport.AllowedOrigins),
	}

	path := config.Transport.SocketPath
	if path == "" {
		path = DefaultSocketPath
	}
	mux.HandleFunc("GET "+path, t.serveWS)
	Logger.Infof("Websocket endpoint mounted at %s", path)
}

func (t *wsServerTransport) Listen(ctx context.Context, _ common.ServerConfig) error {
	<-ctx.Done()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// serveWS upgrades the request and runs the connection handler
func (t *wsServerTransport) serveWS(w http.ResponseWriter, r *http.Request) {
	if t.handler == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	// On failure the upgrader has already written an error response
	ws, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger.Debugf("Websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	c := newConn(ws,
		t.config.Transport.MaxMessageSize,
		t.config.Transport.PingInterval,
		t.binary,
	)
	defer c.Close()

	t.handler(c)
}

// originChecker accepts requests without Origin header and, unless the list is
// empty or contains "*", only the listed origins
func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			allowed = nil
			break
		}
	}
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) || strings.EqualFold(o, u.Host) {
				return true
			}
		}
		return false
	}
}
