package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

const defaultURL = "nats://localhost:4222"

type Nats struct {
	Url  string
	Conn *nats.Conn
}

// Connect dials url as the named client, reconnecting forever once up.
// An empty url means the local default server.
func Connect(name, url, token string) (*Nats, error) {
	if url == "" {
		url = defaultURL
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &Nats{Url: url, Conn: conn}, nil
}
