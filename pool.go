package caparoc

import (
	"time"

	"github.com/goburrow/modbus"
)

// Client is a single underlying Modbus connection to the feed-in module.
type Client interface {
	modbus.Client
	Connect() error
	Close() error
	IsAlive() bool
	CreateTime() time.Time
}

// ConnPool hands out Clients. The parametrization protocol holds one Client
// for its whole sequence so that its timed register accesses are not
// interleaved with other traffic on the same connection.
type ConnPool interface {
	Get() (Client, error)
	Put(conn Client) error
	Close() error
}
