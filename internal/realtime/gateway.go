package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/auth"
)

const outboundBufferSize = 64

// Gateway upgrades HTTP requests to websocket connections and bridges them
// to the broker. The handshake requires a valid bearer credential; without
// one the connection attempt is rejected outright.
type Gateway struct {
	broker   *Broker
	verifier auth.Verifier
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewGateway creates a new realtime gateway
func NewGateway(broker *Broker, verifier auth.Verifier, log *zap.Logger) *Gateway {
	return &Gateway{
		broker:   broker,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin checks belong to the fronting proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// wsTransport pushes outbound messages to a per-connection buffered channel
// drained by a single writer goroutine, keeping all websocket writes on one
// goroutine. A full buffer fails the send so the broker can log and move
// on: a client too slow to drain its buffer loses messages rather than
// stalling delivery to everyone else.
type wsTransport struct {
	out chan OutboundMessage
}

var errSlowClient = errors.New("outbound buffer full")

func (t *wsTransport) Send(msg OutboundMessage) error {
	select {
	case t.out <- msg:
		return nil
	default:
		return errSlowClient
	}
}

// bearerToken extracts the credential from the Authorization header or,
// for browser websocket clients that cannot set headers, the token query
// parameter.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

// ServeHTTP handles the websocket handshake and runs the connection.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}

	accountID, err := g.verifier.Verify(token)
	if err != nil {
		g.log.Warn("Rejected realtime handshake", zap.Error(err))
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	transport := &wsTransport{out: make(chan OutboundMessage, outboundBufferSize)}

	conn, err := g.broker.Connect(r.Context(), accountID, transport)
	if err != nil {
		g.log.Warn("Rejected realtime connection",
			zap.String("account_id", accountID),
			zap.Error(err))
		_ = ws.Close()
		return
	}

	done := make(chan struct{})
	go g.writeLoop(ws, transport, done)
	g.readLoop(r.Context(), ws, conn, transport)

	// Teardown order matters: the broker forgets the connection before the
	// websocket closes, so no in-flight notify can observe a dead socket.
	g.broker.Disconnect(conn.ID)
	close(done)
	_ = ws.Close()
}

func (g *Gateway) writeLoop(ws *websocket.Conn, transport *wsTransport, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-transport.out:
			if err := ws.WriteJSON(msg); err != nil {
				g.log.Warn("Failed to write realtime message", zap.Error(err))
				return
			}
		}
	}
}

func (g *Gateway) readLoop(ctx context.Context, ws *websocket.Conn, conn *Conn, transport *wsTransport) {
	for {
		var msg InboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Warn("Realtime connection closed unexpectedly",
					zap.String("connection_id", conn.ID),
					zap.Error(err))
			}
			return
		}

		g.handleMessage(ctx, conn, transport, msg)
	}
}

// handleMessage serves one client request. Replies go through the same
// transport as event notifications so the websocket only ever sees a
// single writer.
func (g *Gateway) handleMessage(ctx context.Context, conn *Conn, transport *wsTransport, msg InboundMessage) {
	switch msg.Type {
	case TypeSubscribeWebsite:
		if err := g.broker.Subscribe(ctx, conn.ID, msg.WebsiteID); err != nil {
			g.send(transport, OutboundMessage{
				Type:      TypeSubscriptionError,
				WebsiteID: msg.WebsiteID,
				Message:   err.Error(),
			})
			return
		}
		g.send(transport, OutboundMessage{
			Type:      TypeSubscriptionSuccess,
			WebsiteID: msg.WebsiteID,
		})

	case TypeUnsubscribeWebsite:
		g.broker.Unsubscribe(conn.ID, msg.WebsiteID)
		g.send(transport, OutboundMessage{
			Type:      TypeUnsubscriptionSuccess,
			WebsiteID: msg.WebsiteID,
		})

	default:
		g.send(transport, OutboundMessage{
			Type:    TypeSubscriptionError,
			Message: "unknown message type " + msg.Type,
		})
	}
}

func (g *Gateway) send(transport *wsTransport, msg OutboundMessage) {
	if err := transport.Send(msg); err != nil {
		g.log.Warn("Dropped reply to slow client", zap.String("type", msg.Type), zap.Error(err))
	}
}
