package caparoc

import (
	"time"

	"github.com/rs/zerolog"
)

// caparocTCP Connection config of TCP
type caparocTCP struct {
	Host            string
	Port            int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// caparocRTU Connection config of RTU
type caparocRTU struct {
	ComAddr  string
	BaudRate int
	DataBits int
	Parity   string // (N, E, O)
	StopBits int
}

type Option func(*Caparoc)

// WithHost Set the host of the feed-in module
func WithHost(host string) Option {
	return func(d *Caparoc) {
		d.Host = host
	}
}

// WithPort Set the port of the feed-in module
func WithPort(port int) Option {
	return func(d *Caparoc) {
		d.Port = port
	}
}

// WithMaxOpenConns Set the max open TCP connections
func WithMaxOpenConns(maxOpenConns int) Option {
	return func(d *Caparoc) {
		d.MaxOpenConns = maxOpenConns
	}
}

// WithConnMaxLifetime Set the max TCP connection lifetime
func WithConnMaxLifetime(connMaxLifetime time.Duration) Option {
	return func(d *Caparoc) {
		d.ConnMaxLifetime = connMaxLifetime
	}
}

// WithComAddr Set the com address of the serial line
func WithComAddr(comAddr string) Option {
	return func(d *Caparoc) {
		d.ComAddr = comAddr
	}
}

// WithBaudRate Set the baud rate of the serial line
func WithBaudRate(baudRate int) Option {
	return func(d *Caparoc) {
		d.BaudRate = baudRate
	}
}

// WithDataBits Set the data bits of the serial line
func WithDataBits(dataBits int) Option {
	return func(d *Caparoc) {
		d.DataBits = dataBits
	}
}

// WithParity Set the parity of the serial line
func WithParity(parity string) Option {
	return func(d *Caparoc) {
		d.Parity = parity
	}
}

// WithStopBits Set the stop bits of the serial line
func WithStopBits(stopBits int) Option {
	return func(d *Caparoc) {
		d.StopBits = stopBits
	}
}

// WithTimeout Set the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Caparoc) {
		d.timeout = timeout
	}
}

// WithSlaveID Set the unit id of the feed-in module
func WithSlaveID(slaveID uint8) Option {
	return func(d *Caparoc) {
		d.slaveID = slaveID
	}
}

// WithLogger Set the logger. The parametrization protocol logs every step of
// its lock/write/verify sequence at debug level; everything else is silent.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Caparoc) {
		d.logger = logger
	}
}

// WithCollector Set the telemetry collector
func WithCollector(collector Collector) Option {
	return func(d *Caparoc) {
		d.collector = collector
	}
}

// WithClock Set the clock used for protocol delays. Tests inject a fake so
// the retry loop runs without real waiting.
func WithClock(clock Clock) Option {
	return func(d *Caparoc) {
		d.clock = clock
	}
}
