// Package client is the player-side counterpart of the battleship room
// server: it dials the websocket endpoint, sends typed messages and
// hands inbound messages to subscribers by type.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	mb "github.com/saeidalz13/battleship-rooms/models/battleship"
	mc "github.com/saeidalz13/battleship-rooms/models/connection"
)

// AnyType subscribes a handler to every inbound message.
const AnyType = "*"

const (
	handshakeTimeout = time.Second * 10
	writeWait        = time.Second * 10
)

var (
	ErrClosed  = errors.New("client is closed")
	ErrNoFleet = errors.New("could not lay out a random fleet")
)

// Handler receives the body of an inbound message: "payload" for most
// types, "gameState" for SERVER_STATE. For AnyType subscribers it gets
// the whole message.
type Handler func(msgType string, body json.RawMessage)

type inbound struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	GameState json.RawMessage `json:"gameState,omitempty"`
}

type subscription struct {
	id      uint64
	handler Handler
}

type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	subsMu sync.RWMutex
	subs   map[string][]subscription
	nextId uint64

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to a server URL such as ws://localhost:8000/battleship.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn: conn,
		subs: make(map[string][]subscription),
		done: make(chan struct{}),
	}, nil
}

// Subscribe registers h for msgType and returns a function removing it.
// Handlers run on the goroutine executing Run and must not block.
func (c *Client) Subscribe(msgType string, h Handler) func() {
	c.subsMu.Lock()
	c.nextId++
	id := c.nextId
	c.subs[msgType] = append(c.subs[msgType], subscription{id: id, handler: h})
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()

		subs := c.subs[msgType]
		for i, s := range subs {
			if s.id == id {
				c.subs[msgType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Send writes {"type": msgType, "payload": payload}. A nil payload
// sends the type alone.
func (c *Client) Send(msgType string, payload interface{}) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if payload == nil {
		return c.conn.WriteJSON(mc.NewSignal(msgType))
	}

	msg := mc.NewMessage[interface{}](msgType)
	msg.AddPayload(payload)
	return c.conn.WriteJSON(msg)
}

func (c *Client) CreateRoom(name string) error {
	return c.Send(mc.TypeCreateRoom, mc.ReqCreateRoom{Name: name})
}

func (c *Client) JoinRoom(code, name string) error {
	return c.Send(mc.TypeJoinRoom, mc.ReqJoinRoom{Code: code, Name: name})
}

func (c *Client) Ready(fleet mb.Fleet) error {
	return c.Send(mc.TypePlayerReady, mc.ReqPlayerReady{Ships: fleet})
}

// ReadyRandom lays out the catalog fleet at random and submits it. The
// submitted fleet is returned so the caller can render its own board.
func (c *Client) ReadyRandom(rng *rand.Rand) (mb.Fleet, error) {
	fleet, ok := mb.NewRandomFleet(rng)
	if !ok {
		return nil, ErrNoFleet
	}
	return fleet, c.Ready(fleet)
}

func (c *Client) Fire(p mb.Position) error {
	return c.Send(mc.TypeFire, mc.ReqFire{Position: &p})
}

func (c *Client) Reset() error {
	return c.Send(mc.TypeReset, nil)
}

// Run reads until the connection closes or ctx is done, dispatching each
// message to its subscribers. A normal closure returns nil.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.Close()
	})
	defer stop()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			_ = c.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("client: dropping malformed message")
			continue
		}
		c.dispatch(msg, data)
	}
}

func (c *Client) dispatch(msg inbound, raw []byte) {
	body := msg.Payload
	if msg.Type == mc.TypeServerState {
		body = msg.GameState
	}

	c.subsMu.RLock()
	typed := append([]subscription(nil), c.subs[msg.Type]...)
	wildcard := append([]subscription(nil), c.subs[AnyType]...)
	c.subsMu.RUnlock()

	for _, s := range typed {
		s.handler(msg.Type, body)
	}
	for _, s := range wildcard {
		s.handler(msg.Type, raw)
	}
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and tears the connection down. Safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		// WriteControl may run concurrently with WriteJSON
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)

		err = c.conn.Close()
	})
	return err
}
