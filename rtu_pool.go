package caparoc

import (
	"net"
	"strings"
	"time"

	"github.com/goburrow/modbus"
)

// RTUPool wraps the single shared serial connection. A serial line carries
// one conversation at a time, so there is nothing to pool; Get always
// returns the same client.
type RTUPool struct {
	client Client
}

func NewRTUPool(client Client) (ConnPool, error) {
	return &RTUPool{
		client: client,
	}, nil
}

func (p *RTUPool) Get() (Client, error) {
	return p.client, nil
}

func (p *RTUPool) Put(conn Client) error {
	return nil
}

func (p *RTUPool) Close() error {
	return p.client.Close()
}

type RTUClient struct {
	Client     modbus.Client
	Handler    *modbus.RTUClientHandler
	createTime time.Time
}

func (c *RTUClient) Connect() error {
	return c.Handler.Connect()
}

func (c *RTUClient) Close() error {
	return c.Handler.Close()
}

func (c *RTUClient) IsAlive() bool {
	_, err := c.Client.ReadHoldingRegisters(regConnectedModules, 1)
	if err != nil {
		if strings.Contains(err.Error(), "EOF") {
			return false
		} else if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return false
		}
	}
	return true
}

func (c *RTUClient) CreateTime() time.Time {
	return c.createTime
}

func (c *RTUClient) ReadCoils(address, quantity uint16) (results []byte, err error) {
	return c.Client.ReadCoils(address, quantity)
}

func (c *RTUClient) ReadDiscreteInputs(address, quantity uint16) (results []byte, err error) {
	return c.Client.ReadDiscreteInputs(address, quantity)
}

func (c *RTUClient) WriteSingleCoil(address, value uint16) (results []byte, err error) {
	return c.Client.WriteSingleCoil(address, value)
}

func (c *RTUClient) WriteMultipleCoils(address, quantity uint16, value []byte) (results []byte, err error) {
	return c.Client.WriteMultipleCoils(address, quantity, value)
}

func (c *RTUClient) ReadInputRegisters(address, quantity uint16) (results []byte, err error) {
	return c.Client.ReadInputRegisters(address, quantity)
}

func (c *RTUClient) ReadHoldingRegisters(address, quantity uint16) (results []byte, err error) {
	return c.Client.ReadHoldingRegisters(address, quantity)
}

func (c *RTUClient) WriteSingleRegister(address, value uint16) (results []byte, err error) {
	return c.Client.WriteSingleRegister(address, value)
}

func (c *RTUClient) WriteMultipleRegisters(address, quantity uint16, value []byte) (results []byte, err error) {
	return c.Client.WriteMultipleRegisters(address, quantity, value)
}

func (c *RTUClient) ReadWriteMultipleRegisters(readAddress, readQuantity, writeAddress, writeQuantity uint16, value []byte) (results []byte, err error) {
	return c.Client.ReadWriteMultipleRegisters(readAddress, readQuantity, writeAddress, writeQuantity, value)
}

func (c *RTUClient) MaskWriteRegister(address, andMask, orMask uint16) (results []byte, err error) {
	return c.Client.MaskWriteRegister(address, andMask, orMask)
}

func (c *RTUClient) ReadFIFOQueue(address uint16) (results []byte, err error) {
	return c.Client.ReadFIFOQueue(address)
}
