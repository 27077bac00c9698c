package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/UniverseRPG/server/internal/account"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/card"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/engine"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
	"github.com/MRamiBalles/UniverseRPG/server/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer. Imported saves travel inside a message.
	maxMessageSize = 1 << 20
)

// Command types accepted from the frontend.
const (
	CmdLogin               = "LOGIN"
	CmdCreateUser          = "CREATE_USER"
	CmdLogout              = "LOGOUT"
	CmdTap                 = "TAP"
	CmdStartConstruction   = "START_CONSTRUCTION"
	CmdCollectConstruction = "COLLECT_CONSTRUCTION"
	CmdEquipCard           = "EQUIP_CARD"
	CmdUnequipCard         = "UNEQUIP_CARD"
	CmdDeleteResource      = "DELETE_RESOURCE"
	CmdChangeLocation      = "CHANGE_LOCATION"
	CmdSetPage             = "SET_PAGE"
	CmdSave                = "SAVE"
	CmdLoad                = "LOAD"
	CmdExport              = "EXPORT"
	CmdImport              = "IMPORT"
	CmdBackups             = "BACKUPS"
	CmdRestore             = "RESTORE"
	CmdState               = "STATE"
	CmdDropTable           = "DROP_TABLE"
	CmdCanAfford           = "CAN_AFFORD"
)

// ResultType tags every reply to a command.
const ResultType = "RESULT"

var (
	ErrRateLimited    = errors.New("too many messages")
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadPayload     = errors.New("malformed payload")
)

// Command represents an incoming request from the frontend.
type Command struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Result is the reply to one Command.
type Result struct {
	Type      string      `json:"type"`
	Command   string      `json:"command"`
	RequestID string      `json:"request_id,omitempty"`
	OK        bool        `json:"ok"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Client is one WebSocket connection. It is logged in as at most one player.
type Client struct {
	hub      *Hub
	sessions *session.Manager
	conn     *websocket.Conn
	send     chan []byte

	// guarded by hub.mu
	user   string
	closed bool

	limiter *rateWindow
}

// NewClient creates a client for conn. sendBuffer bounds queued outgoing messages and
// maxPerSecond caps incoming commands; zero disables the cap.
func NewClient(hub *Hub, sessions *session.Manager, conn *websocket.Conn, sendBuffer, maxPerSecond int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		hub:      hub,
		sessions: sessions,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		limiter:  newRateWindow(maxPerSecond, time.Second),
	}
}

// ReadPump pumps commands from the websocket connection into Dispatch. When the last
// connection of a player goes away the player is logged out, which saves the game.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.detach(ctx)
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("websocket read error: %v", err)
				metrics.Get().RecordWSError()
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warnf("Failed to parse Command from WebSocket: %v", err)
			c.reply(Result{Type: ResultType, Error: ErrBadPayload.Error()})
			continue
		}
		if !c.limiter.Allow(time.Now()) {
			c.hub.logger.Warnf("Rate limit exceeded for client of %q", c.hub.User(c))
			c.reply(failure(cmd, ErrRateLimited))
			continue
		}
		c.reply(c.Dispatch(ctx, cmd))
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) reply(res Result) {
	data, err := json.Marshal(res)
	if err != nil {
		c.hub.logger.Errorf("Failed to serialize result of %s: %v", res.Command, err)
		return
	}
	if !c.hub.Send(c, data) {
		c.hub.logger.Warnf("reply to %s dropped", res.Command)
	}
}

// detach unbinds the client and logs its player out when no other connection remains.
func (c *Client) detach(ctx context.Context) {
	user := c.hub.User(c)
	if user == "" {
		return
	}
	c.hub.Bind(c, "")
	if c.hub.Connections(user) > 0 {
		return
	}
	// The connection may be going away because the server is; the final save still runs.
	if err := c.sessions.Logout(context.WithoutCancel(ctx), user); err != nil && !errors.Is(err, session.ErrNotLoggedIn) {
		c.hub.logger.Errorf("logout of %s on disconnect failed: %v", user, err)
	}
}

// Dispatch runs one command and builds its reply.
func (c *Client) Dispatch(ctx context.Context, cmd Command) Result {
	data, err := c.route(ctx, cmd)
	if err != nil {
		return failure(cmd, err)
	}
	return Result{Type: ResultType, Command: cmd.Type, RequestID: cmd.RequestID, OK: true, Data: data}
}

func failure(cmd Command, err error) Result {
	return Result{Type: ResultType, Command: cmd.Type, RequestID: cmd.RequestID, Error: err.Error()}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) route(ctx context.Context, cmd Command) (interface{}, error) {
	switch cmd.Type {
	case CmdLogin, CmdCreateUser:
		return c.handleAuth(ctx, cmd)
	case CmdLogout:
		user := c.hub.User(c)
		if user == "" {
			return nil, session.ErrNotLoggedIn
		}
		c.detach(ctx)
		return nil, nil
	}

	s, err := c.session()
	if err != nil {
		return nil, err
	}
	eng := s.Engine

	switch cmd.Type {
	case CmdTap:
		return eng.Tap(), nil

	case CmdStartConstruction:
		var p struct {
			BlueprintID string `json:"blueprint_id"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return eng.StartConstruction(p.BlueprintID)

	case CmdCollectConstruction:
		var p struct {
			BayID string `json:"bay_id"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return eng.CollectConstruction(p.BayID)

	case CmdEquipCard:
		var p struct {
			CardID string `json:"card_id"`
			Page   string `json:"page"`
			Slot   int    `json:"slot"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		page, ok := card.ParsePage(p.Page)
		if !ok {
			return nil, fmt.Errorf("%w: unknown page %q", engine.ErrInvalidSlot, p.Page)
		}
		return nil, eng.EquipCard(p.CardID, page, p.Slot)

	case CmdUnequipCard:
		var p struct {
			Page string `json:"page"`
			Slot int    `json:"slot"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		page, ok := card.ParsePage(p.Page)
		if !ok {
			return nil, fmt.Errorf("%w: unknown page %q", engine.ErrInvalidSlot, p.Page)
		}
		return nil, eng.UnequipCard(page, p.Slot)

	case CmdDeleteResource:
		var p struct {
			Resource string  `json:"resource"`
			Amount   float64 `json:"amount"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		t, ok := resource.Parse(p.Resource)
		if !ok {
			return nil, fmt.Errorf("%w: %q", engine.ErrResourceNotHeld, p.Resource)
		}
		left, err := eng.DeleteResource(t, p.Amount)
		if err != nil {
			return nil, err
		}
		return map[string]float64{"remaining": left}, nil

	case CmdChangeLocation:
		var p struct {
			LocationID string `json:"location_id"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, eng.ChangeLocation(p.LocationID)

	case CmdSetPage:
		var p struct {
			Page string `json:"page"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		page, ok := engine.ParsePage(p.Page)
		if !ok {
			return nil, fmt.Errorf("%w: unknown page %q", ErrBadPayload, p.Page)
		}
		return nil, eng.SetPage(page)

	case CmdSave:
		return nil, s.Save(ctx)

	case CmdLoad:
		outcome, err := s.Load(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"outcome": string(outcome)}, nil

	case CmdExport:
		blob, err := s.Export(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"data": string(blob)}, nil

	case CmdImport:
		var p struct {
			Data string `json:"data"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		outcome, err := s.Import(ctx, []byte(p.Data))
		if err != nil {
			return nil, err
		}
		return map[string]string{"outcome": string(outcome)}, nil

	case CmdBackups:
		return s.Saves.Backups(ctx)

	case CmdRestore:
		var p struct {
			Key string `json:"key"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		outcome, err := s.Saves.Restore(ctx, p.Key)
		if err != nil {
			return nil, err
		}
		return map[string]string{"outcome": string(outcome)}, nil

	case CmdState:
		return stateView{
			State:     eng.Snapshot(),
			Storage:   eng.Storage(),
			Modifiers: eng.Modifiers(),
			Ready:     eng.ReadyBays(),
		}, nil

	case CmdDropTable:
		var p struct {
			LocationID string `json:"location_id"`
		}
		if len(cmd.Payload) > 0 {
			if err := decode(cmd.Payload, &p); err != nil {
				return nil, err
			}
		}
		if p.LocationID == "" {
			p.LocationID = eng.Snapshot().CurrentLocationID
		}
		return eng.DropTable(p.LocationID), nil

	case CmdCanAfford:
		var p struct {
			BlueprintID string `json:"blueprint_id"`
		}
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return map[string]bool{"affordable": eng.CanAfford(p.BlueprintID)}, nil
	}

	c.hub.logger.Warnf("Unknown Command type: %s", cmd.Type)
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Type)
}

// stateView is the STATE reply: the raw state plus the derived numbers the UI shows.
type stateView struct {
	State     *engine.State    `json:"state"`
	Storage   engine.Storage   `json:"storage"`
	Modifiers engine.Modifiers `json:"modifiers"`
	Ready     []string         `json:"ready_bays,omitempty"`
}

func (c *Client) handleAuth(ctx context.Context, cmd Command) (interface{}, error) {
	var p credentials
	if err := decode(cmd.Payload, &p); err != nil {
		return nil, err
	}

	// Switching accounts on one connection logs the previous one out first.
	if prev := c.hub.User(c); prev != "" && prev != p.Username {
		c.detach(ctx)
	}

	var (
		s   *session.Session
		err error
	)
	if cmd.Type == CmdCreateUser {
		s, err = c.sessions.CreateUser(ctx, p.Username, p.Password)
	} else {
		s, err = c.sessions.Login(ctx, p.Username, p.Password)
	}
	if err != nil {
		var verr *account.ValidationError
		if !errors.As(err, &verr) {
			c.hub.logger.Errorf("%s for %q failed: %v", cmd.Type, p.Username, err)
		}
		return nil, err
	}
	c.hub.Bind(c, s.Username)
	return map[string]string{"username": s.Username, "player_name": s.Engine.PlayerName()}, nil
}

func (c *Client) session() (*session.Session, error) {
	user := c.hub.User(c)
	if user == "" {
		return nil, session.ErrNotLoggedIn
	}
	s, ok := c.sessions.Get(user)
	if !ok {
		c.hub.Bind(c, "")
		return nil, session.ErrNotLoggedIn
	}
	return s, nil
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrBadPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// rateWindow admits at most max events per window.
type rateWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	start  time.Time
	count  int
}

func newRateWindow(max int, window time.Duration) *rateWindow {
	return &rateWindow{max: max, window: window}
}

// Allow records one event at now and reports whether it fits in the current window.
func (r *rateWindow) Allow(now time.Time) bool {
	if r.max <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if now.Sub(r.start) >= r.window {
		r.start = now
		r.count = 0
	}
	if r.count >= r.max {
		return false
	}
	r.count++
	return true
}
