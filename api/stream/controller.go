// Package streamapi serves the realtime position stream of maze rooms.
package streamapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/beka-birhanu/vinom-maze/protocol"
	"github.com/beka-birhanu/vinom-maze/room"
	"github.com/beka-birhanu/vinom-maze/seed"
	"github.com/beka-birhanu/vinom-maze/service/i"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const defaultBusiestLimit = 10

// Controller upgrades stream requests to websockets and attaches them to
// the room of their seed.
type Controller struct {
	registry     *room.Registry
	presence     i.Presence
	logger       i.Logger
	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration
	pongTimeout  time.Duration
}

// Config holds the collaborators and limits of a Controller.
type Config struct {
	Registry     *room.Registry // required
	Presence     i.Presence     // required
	Logger       i.Logger       // required
	SendBuffer   int            // outbound messages queued per member
	WriteTimeout time.Duration  // deadline of one websocket write
	PongTimeout  time.Duration  // silence tolerated before a member is dropped
}

// NewController initializes a stream Controller.
func NewController(c Config) (*Controller, error) {
	if c.Registry == nil || c.Presence == nil || c.Logger == nil {
		return nil, errors.New("stream controller needs a registry, a presence index and a logger")
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = defaultPongTimeout
	}

	return &Controller{
		registry: c.Registry,
		presence: c.Presence,
		logger:   c.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		sendBuffer:   c.SendBuffer,
		writeTimeout: c.WriteTimeout,
		pongTimeout:  c.PongTimeout,
	}, nil
}

// RegisterAPI registers the room inspection routes.
func (sc *Controller) RegisterAPI(route *gin.RouterGroup) {
	rooms := route.Group("/rooms")
	{
		rooms.GET("", sc.busiest)
		rooms.GET("/:seed", sc.room)
	}
}

// RegisterRoot registers the websocket endpoint.
func (sc *Controller) RegisterRoot(route *gin.RouterGroup) {
	route.GET("/stream/:seed", sc.stream)
}

// stream joins the caller to the room of the path seed for the lifetime of
// the connection. Closing the connection, an exit message and a protocol
// violation all end in the same leave.
func (sc *Controller) stream(ctx *gin.Context) {
	if !websocket.IsWebSocketUpgrade(ctx.Request) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	s := seed.Canonicalize(ctx.Param("seed"))
	conn, err := sc.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		sc.logger.Error(fmt.Sprintf("upgrading stream of %s: %s", s, err))
		return
	}

	c := newClient(conn, sc.sendBuffer, sc.writeTimeout, sc.pongTimeout)
	go c.writePump()

	r, m, err := sc.registry.Join(s, c)
	if err != nil {
		sc.logger.Error(fmt.Sprintf("joining room %s: %s", s, err))
		_ = c.Close()
		return
	}
	defer func() {
		r.Leave(m.ID)
		_ = c.Close()
	}()

	c.readPump(func(payload []byte) bool {
		err := r.Handle(m.ID, payload)
		switch {
		case err == nil:
			return true
		case errors.Is(err, protocol.ErrViolation), errors.Is(err, room.ErrExited):
		default:
			sc.logger.Warning(fmt.Sprintf("member %s of room %s: %s", m.ID, s, err))
		}
		return false
	})
}

// room reports how many members the room of a seed has in this process.
func (sc *Controller) room(ctx *gin.Context) {
	s := seed.Canonicalize(ctx.Param("seed"))
	members := 0
	if r, ok := sc.registry.Lookup(s); ok {
		members = r.Len()
	}

	ctx.JSON(http.StatusOK, &RoomResponse{Seed: s, Members: members})
}

// busiest lists the seeds with the most members according to the presence index.
func (sc *Controller) busiest(ctx *gin.Context) {
	limit := int64(defaultBusiestLimit)
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	counts, err := sc.presence.Busiest(ctx.Request.Context(), limit)
	if err != nil {
		sc.logger.Error(fmt.Sprintf("listing busiest rooms: %s", err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "presence index unavailable"})
		return
	}

	ctx.JSON(http.StatusOK, counts)
}
