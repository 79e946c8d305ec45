package comm

import (
	"encoding/json"
	"time"
)

// WSMessage is the envelope on the console websocket and on NATS.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "live", "dashboard", "event"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
	Gen      uint64          `json:"gen,omitempty"` // poll generation for feed messages
}

func NewWSMessage(msgType string, data any) (WSMessage, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return WSMessage{}, err
	}
	return WSMessage{Type: msgType, Data: b}, nil
}

// ConsoleEvent announces a console mutation or a risk finding.
type ConsoleEvent struct {
	Type      string    `json:"type"` // bonus_issued, player_updated, admin_created, risk_flagged
	Section   string    `json:"section"`
	AdminID   int64     `json:"admin_id,omitempty"`
	AdminName string    `json:"admin_name,omitempty"`
	Target    string    `json:"target"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
