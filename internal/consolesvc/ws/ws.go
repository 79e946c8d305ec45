package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/avvvet/console-services/internal/comm"
	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/poller"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Feed is a view pushed to a connection on an interval.
type Feed struct {
	Name     string // message type, e.g. "dashboard"
	Section  rules.Section
	Interval time.Duration
	Fetch    func(ctx context.Context, sess *session.Session) (any, error)
}

type client struct {
	id   string
	conn *websocket.Conn
	sess *session.Session

	wmu sync.Mutex // gorilla allows one concurrent writer

	ctx    context.Context
	cancel context.CancelFunc
	feeds  map[string]*poller.Poller[any]
}

func (c *client) write(m comm.WSMessage) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(m)
}

// push writes feed data unless the connection is already shutting down.
func (c *client) push(m comm.WSMessage) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.ctx.Err(); err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(m)
}

// Ws keeps the console's browser connections. Each connection gets its own
// pollers bound to its session, and console events are fanned out to every
// connection whose admin can see the event's section.
type Ws struct {
	connMap sync.Map // socketId -> *client
	feeds   []Feed
}

func NewWs(feeds ...Feed) *Ws {
	return &Ws{feeds: feeds}
}

// Serve runs a connection until the browser goes away or the session ends.
func (s *Ws) Serve(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	c := &client{
		id:    uuid.New().String(),
		conn:  conn,
		sess:  sess,
		feeds: make(map[string]*poller.Poller[any]),
	}

	admin, err := sess.Admin()
	if err != nil {
		s.expire(c)
		conn.Close()
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	// the socket ends with the session, not with the last poll
	expiry := time.AfterFunc(time.Until(sess.ExpiresAt()), func() {
		sess.Invalidate(context.Background())
		c.cancel()
		s.expire(c)
		conn.Close()
	})

	var wg sync.WaitGroup
	for _, f := range s.feeds {
		if !rules.CanAccess(admin, f.Section) {
			continue
		}
		p := s.newFeedPoller(c, f)
		c.feeds[f.Name] = p
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(c.ctx)
		}()
	}

	s.connMap.Store(c.id, c)
	log.WithFields(log.Fields{"socket": c.id, "admin": admin.Username}).Info("console socket connected")

	defer func() {
		expiry.Stop()
		c.cancel()
		wg.Wait()
		s.connMap.Delete(c.id)
		conn.Close()
		log.WithField("socket", c.id).Info("console socket closed")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", c.id, err)
			}
			return
		}

		var msg comm.WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Errorf("Failed to unmarshal message from socket %s: %v", c.id, err)
			s.sendError(c, "invalid message format")
			continue
		}
		s.socketMessage(c, msg)
	}
}

// handle socket message from the dashboard
func (s *Ws) socketMessage(c *client, msg comm.WSMessage) {
	switch msg.Type {
	case "refresh":
		var payload struct {
			Feed string `json:"feed"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			s.sendError(c, "invalid refresh payload")
			return
		}
		p, ok := c.feeds[payload.Feed]
		if !ok {
			s.sendError(c, "unknown feed: "+payload.Feed)
			return
		}
		p.Trigger(c.ctx)
	case "ping":
		c.write(comm.WSMessage{Type: "pong"})
	default:
		log.Warnf("unknown event received: %s", msg.Type)
	}
}

func (s *Ws) newFeedPoller(c *client, f Feed) *poller.Poller[any] {
	fetch := func(ctx context.Context) (any, error) {
		return f.Fetch(ctx, c.sess)
	}
	apply := func(res poller.Result[any]) {
		if c.ctx.Err() != nil {
			return
		}
		if res.Err != nil {
			if sessionEnded(res.Err) {
				c.cancel()
				s.expire(c)
				c.conn.Close()
				return
			}
			if errors.Is(res.Err, context.Canceled) {
				return
			}
			log.WithFields(log.Fields{"socket": c.id, "feed": f.Name}).Errorf("Error polling feed: %s", res.Err)
			s.sendError(c, res.Err.Error())
			return
		}

		msg, err := comm.NewWSMessage(f.Name, res.Value)
		if err != nil {
			log.Errorf("Failed to encode %s feed: %v", f.Name, err)
			return
		}
		msg.SocketId = c.id
		msg.Gen = res.Gen
		if err := c.push(msg); err != nil {
			log.WithField("socket", c.id).Debugf("write %s feed: %s", f.Name, err)
		}
	}
	return poller.New(c.id+":"+f.Name, f.Interval, fetch, apply)
}

func sessionEnded(err error) bool {
	return api.IsKind(err, api.KindUnauthenticated) ||
		errors.Is(err, session.ErrNotAuthenticated) ||
		errors.Is(err, session.ErrNotFound)
}

func (s *Ws) expire(c *client) {
	if err := c.write(comm.WSMessage{Type: "session_expired"}); err != nil {
		log.WithField("socket", c.id).Debugf("write session_expired: %s", err)
	}
}

func (s *Ws) sendError(c *client, errorMsg string) {
	msg, err := comm.NewWSMessage("error", map[string]string{"error": errorMsg})
	if err != nil {
		return
	}
	if err := c.write(msg); err != nil {
		log.Errorf("Failed to send error message to client: %v", err)
	}
}

// Broadcast sends a console event to every connection allowed to see its
// section. Events without a section go to everyone.
func (s *Ws) Broadcast(msg comm.WSMessage, ev comm.ConsoleEvent) {
	s.connMap.Range(func(key, value any) bool {
		c := value.(*client)
		admin, err := c.sess.Admin()
		if err != nil {
			return true
		}
		if ev.Section != "" && !rules.CanAccess(admin, rules.Section(ev.Section)) {
			return true
		}
		if err := c.write(msg); err != nil {
			log.WithField("socket", c.id).Debugf("broadcast %s: %s", ev.Type, err)
		}
		return true
	})
}

// PublishEvent broadcasts ev to this instance's connections only. It stands
// in for the NATS broker when none is configured.
func (s *Ws) PublishEvent(ev comm.ConsoleEvent) error {
	msg, err := comm.NewWSMessage("event", ev)
	if err != nil {
		return err
	}
	s.Broadcast(msg, ev)
	return nil
}

// Count is the number of open connections.
func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(key, value any) bool {
		n++
		return true
	})
	return n
}
