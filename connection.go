// Package caparoc talks to a Phoenix Contact CAPAROC feed-in module over
// Modbus: typed register access, live topology queries, status decoding and
// the critical nominal-current parametrization sequence.
package caparoc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Caparoc is a handle on one feed-in module. All register access goes
// through its connection pool; parametrization runs are additionally
// serialized by paramMu because the device exposes a single global
// parametrization lock.
type Caparoc struct {
	connType ConnType
	caparocTCP
	caparocRTU
	slaveID uint8
	timeout time.Duration

	logger    zerolog.Logger
	collector Collector
	clock     Clock

	connPool ConnPool
	paramMu  sync.Mutex
}

func newDefaultCaparoc() *Caparoc {
	return &Caparoc{
		slaveID:   1,
		timeout:   1 * time.Second,
		logger:    zerolog.Nop(),
		collector: Noop(),
		clock:     realClock{},
	}
}

// NewTCP new TCP connection configuration. CAPAROC feed-in modules default
// to port 502.
func NewTCP(host string, port int, opts ...Option) *Caparoc {
	c := newDefaultCaparoc()
	c.connType = ConnTypeTCP
	c.caparocTCP = caparocTCP{
		Host:            host,
		Port:            port,
		MaxOpenConns:    3,
		ConnMaxLifetime: 30 * time.Minute,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRTU new RTU connection configuration
func NewRTU(comAddr string, opts ...Option) *Caparoc {
	c := newDefaultCaparoc()
	c.connType = ConnTypeRTU
	c.caparocRTU = caparocRTU{
		ComAddr:  comAddr,
		BaudRate: 19200,
		DataBits: 8,
		Parity:   "E",
		StopBits: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conn connect to the feed-in module
func (c *Caparoc) Conn() error {
	if c.connType == ConnTypeTCP {
		return c.connTCP()
	} else if c.connType == ConnTypeRTU {
		return c.connRTU()
	}
	return nil
}

func (c *Caparoc) connTCP() error {
	addr := fmt.Sprintf("%s:%d", c.Host, c.Port)
	factory := func() (Client, error) {
		handler := modbus.NewTCPClientHandler(addr)
		handler.Timeout = c.timeout
		handler.IdleTimeout = 60 * time.Second
		handler.SlaveId = c.slaveID
		if e := handler.Connect(); e != nil {
			return nil, e
		}
		client := modbus.NewClient(handler)
		return &TCPClient{Client: client, Handler: handler, createTime: time.Now()}, nil
	}
	config := TCPPoolConfig{
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}

	pool, err := NewTCPPool(config, factory)
	if err != nil {
		return errors.Wrap(err, "failed to create TCP pool")
	}
	c.connPool = pool
	return nil
}

// rtuPorts shares one serial handler between devices on the same com port.
var rtuPorts sync.Map // map[ComAddr]*rtuPort

type rtuPort struct {
	h      *modbus.RTUClientHandler
	c      modbus.Client
	slaves map[byte]struct{}
}

func (c *Caparoc) connRTU() error {
	var pool ConnPool
	var err error
	old, ok := rtuPorts.Load(c.ComAddr)
	if ok {
		oldConn, _ := old.(*rtuPort)
		if oldConn.h.BaudRate != c.BaudRate || oldConn.h.DataBits != c.DataBits || oldConn.h.Parity != c.Parity || oldConn.h.StopBits != c.StopBits {
			return errors.New("the baud rate, data bits, parity or stop bits of the same com port must be the same")
		}
		pool, err = NewRTUPool(&RTUClient{Client: oldConn.c, Handler: oldConn.h, createTime: time.Now()})
		if err != nil {
			return errors.Wrap(err, "failed to create RTU pool")
		}
		oldConn.slaves[c.slaveID] = struct{}{}
		rtuPorts.Store(c.ComAddr, oldConn)
	} else {
		handler := modbus.NewRTUClientHandler(c.ComAddr)
		handler.BaudRate = c.BaudRate
		handler.DataBits = c.DataBits
		handler.Parity = c.Parity
		handler.StopBits = c.StopBits
		handler.SlaveId = c.slaveID
		handler.Timeout = c.timeout
		if e := handler.Connect(); e != nil {
			return e
		}
		client := modbus.NewClient(handler)

		pool, err = NewRTUPool(&RTUClient{Client: client, Handler: handler, createTime: time.Now()})
		if err != nil {
			return errors.Wrap(err, "failed to create RTU pool")
		}
		rtuPorts.Store(c.ComAddr, &rtuPort{h: handler, c: client, slaves: map[byte]struct{}{c.slaveID: {}}})
	}

	c.connPool = pool
	return nil
}

// Close releases the connection pool. For RTU, the shared serial port stays
// open while other devices still use it.
func (c *Caparoc) Close() error {
	if c.connType != ConnTypeRTU {
		return c.connPool.Close()
	}
	old, ok := rtuPorts.Load(c.ComAddr)
	if !ok {
		return errors.New("serial handler not found")
	}
	delete(old.(*rtuPort).slaves, c.slaveID)
	if len(old.(*rtuPort).slaves) == 0 {
		// no other device needs this serial port
		if err := c.connPool.Close(); err != nil {
			return err
		}
		rtuPorts.Delete(c.ComAddr)
		return nil
	}
	rtuPorts.Store(c.ComAddr, old)
	return nil
}

// Clock abstracts the protocol's real waits. Sleep returns early with the
// context error when the context is cancelled; the parametrization sequence
// still relocks the device before surfacing that error.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
