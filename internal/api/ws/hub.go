package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"othello-live/internal/protocol"
	"othello-live/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Largest frame the processor accepts. Bigger frames up to readLimit are
	// answered with an Error and the connection stays open.
	maxFrameSize = 4096

	// Frames beyond this make the websocket layer close the connection.
	readLimit = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

type Options struct {
	// IdentifyTimeout bounds the wait for the first frame.
	IdentifyTimeout time.Duration
	// OutboundBuffer is the number of events queued for the writer.
	OutboundBuffer int
	// FrameRate and FrameBurst throttle inbound frames per connection.
	// A zero FrameRate disables throttling.
	FrameRate  float64
	FrameBurst int
}

func DefaultOptions() Options {
	return Options{
		IdentifyTimeout: 500 * time.Millisecond,
		OutboundBuffer:  16,
		FrameRate:       20,
		FrameBurst:      40,
	}
}

// Hub serves live connections.
type Hub struct {
	proc   *protocol.Processor
	opts   Options
	log    *zap.Logger
	active atomic.Int64
}

func NewHub(proc *protocol.Processor, opts Options, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.IdentifyTimeout <= 0 {
		opts.IdentifyTimeout = DefaultOptions().IdentifyTimeout
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = DefaultOptions().OutboundBuffer
	}
	return &Hub{proc: proc, opts: opts, log: log}
}

// Active reports the number of authenticated connections.
func (h *Hub) Active() int64 { return h.active.Load() }

func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	h.Serve(c.Request.Context(), conn)
}

var errPeerGone = errors.New("peer closed during handshake")

// Serve runs one connection until it closes.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn) {
	remote := zap.String("remote", conn.RemoteAddr().String())
	conn.SetReadLimit(readLimit)

	userID, err := h.handshake(ctx, conn)
	if err != nil {
		if !errors.Is(err, errPeerGone) {
			h.reject(conn, h.proc.Fail(err, remote))
		}
		_ = conn.Close()
		return
	}

	c := &client{conn: conn, out: make(chan shared.Event, h.opts.OutboundBuffer), done: make(chan struct{})}
	defer c.close()
	go c.writePump(h.log)

	h.active.Add(1)
	defer h.active.Add(-1)
	h.log.Debug("connection ready", remote, zap.String("user_id", userID))

	peer := protocol.NewPeer(userID, c.send, c.done)
	if !peer.Send(shared.Ready()) {
		return
	}
	h.readLoop(ctx, c, peer)
}

func (h *Hub) handshake(ctx context.Context, conn *websocket.Conn) (string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(h.opts.IdentifyTimeout))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return "", protocol.ErrTimedOut
		}
		return "", errPeerGone
	}
	if len(frame) > maxFrameSize {
		return "", protocol.ErrFrameTooLarge
	}
	return h.proc.Authenticate(ctx, frame)
}

// reject writes a final event and a close frame before the caller closes.
func (h *Hub) reject(conn *websocket.Conn, ev shared.Event) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ev); err != nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
}

func (h *Hub) readLoop(ctx context.Context, c *client, peer *protocol.Peer) {
	conn := c.conn
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limit := rate.Inf
	if h.opts.FrameRate > 0 {
		limit = rate.Limit(h.opts.FrameRate)
	}
	limiter := rate.NewLimiter(limit, max(h.opts.FrameBurst, 1))

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Debug("read failed", zap.String("user_id", peer.UserID), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var reply shared.Event
		switch {
		case !limiter.Allow():
			reply = protocol.ErrRateLimited.Event()
		case len(frame) > maxFrameSize:
			reply = h.proc.Fail(protocol.ErrFrameTooLarge, zap.String("user_id", peer.UserID), zap.Int("size", len(frame)))
		default:
			reply = h.proc.Process(ctx, peer, frame)
		}
		if !peer.Send(reply) {
			return
		}
	}
}

// client owns the write side of one connection.
type client struct {
	conn *websocket.Conn
	out  chan shared.Event
	done chan struct{}
	once sync.Once
}

func (c *client) send(ev shared.Event) bool {
	select {
	case c.out <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writePump is the only writer once the connection is authenticated.
func (c *client) writePump(log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case ev := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Debug("write failed", zap.Stringer("op", ev.Op), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
