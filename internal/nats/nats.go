package nats

import (
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

// Nats holds the shared connection the pack and lane services use to
// bridge scan traffic. NATS_URL and NATS_TOKEN come from the service
// .env; an unset URL falls back to the library default (localhost:4222).
type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

func Connect() (*Nats, error) {
	n := &Nats{
		Url:   os.Getenv("NATS_URL"),
		Token: os.Getenv("NATS_TOKEN"),
	}

	if n.Url == "" {
		n.Url = nats.DefaultURL
	}

	// Lane scans must survive store network blips, so reconnect forever
	// rather than giving up after the library default.
	opts := []nats.Option{
		nats.Name("lottery-services"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}

	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}

	n.Conn = conn

	return n, nil
}
