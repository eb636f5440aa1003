package caparoc

import (
	"context"
	"encoding/binary"
	"errors"
	"time"
)

// fakeClient is a scriptable in-memory register bank implementing Client.
type fakeClient struct {
	regs map[uint16]uint16

	// failReads makes reads touching these addresses fail.
	failReads map[uint16]bool
	// ignoreWrites logs but does not apply writes to these addresses,
	// simulating a device that silently drops a value.
	ignoreWrites map[uint16]bool
	// writeHook, when set, runs before a write is applied and may fail it.
	writeHook func(addr, value uint16) error

	writes  []writeOp
	created time.Time
}

type writeOp struct {
	addr  uint16
	value uint16
}

var errFakeIO = errors.New("i/o timeout")

func newFakeClient() *fakeClient {
	return &fakeClient{
		regs:         make(map[uint16]uint16),
		failReads:    make(map[uint16]bool),
		ignoreWrites: make(map[uint16]bool),
		created:      time.Now(),
	}
}

func (f *fakeClient) setString(addr uint16, s string) {
	data := make([]byte, stringRegisters*2)
	copy(data, s)
	for i := uint16(0); i < stringRegisters; i++ {
		f.regs[addr+i] = binary.BigEndian.Uint16(data[i*2:])
	}
}

// writesTo returns the logged writes against one address.
func (f *fakeClient) writesTo(addr uint16) []writeOp {
	var ops []writeOp
	for _, op := range f.writes {
		if op.addr == addr {
			ops = append(ops, op)
		}
	}
	return ops
}

func (f *fakeClient) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	data := make([]byte, quantity*2)
	for i := uint16(0); i < quantity; i++ {
		if f.failReads[address+i] {
			return nil, errFakeIO
		}
		binary.BigEndian.PutUint16(data[i*2:], f.regs[address+i])
	}
	return data, nil
}

func (f *fakeClient) WriteSingleRegister(address, value uint16) ([]byte, error) {
	if f.writeHook != nil {
		if err := f.writeHook(address, value); err != nil {
			return nil, err
		}
	}
	f.writes = append(f.writes, writeOp{addr: address, value: value})
	if !f.ignoreWrites[address] {
		f.regs[address] = value
	}
	return nil, nil
}

func (f *fakeClient) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	for i := uint16(0); i < quantity; i++ {
		word := binary.BigEndian.Uint16(value[i*2:])
		if f.writeHook != nil {
			if err := f.writeHook(address+i, word); err != nil {
				return nil, err
			}
		}
		f.writes = append(f.writes, writeOp{addr: address + i, value: word})
		if !f.ignoreWrites[address+i] {
			f.regs[address+i] = word
		}
	}
	return nil, nil
}

func (f *fakeClient) ReadCoils(address, quantity uint16) ([]byte, error) {
	return nil, errFakeIO
}

func (f *fakeClient) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	return nil, errFakeIO
}

func (f *fakeClient) WriteSingleCoil(address, value uint16) ([]byte, error) {
	return nil, errFakeIO
}
func (f *fakeClient) WriteMultipleCoils(address, quantity uint16, value []byte) ([]byte, error) {
	return nil, errFakeIO
}
func (f *fakeClient) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	return nil, errFakeIO
}
func (f *fakeClient) ReadWriteMultipleRegisters(readAddress, readQuantity, writeAddress, writeQuantity uint16, value []byte) ([]byte, error) {
	return nil, errFakeIO
}
func (f *fakeClient) MaskWriteRegister(address, andMask, orMask uint16) ([]byte, error) {
	return nil, errFakeIO
}
func (f *fakeClient) ReadFIFOQueue(address uint16) ([]byte, error) { return nil, errFakeIO }

func (f *fakeClient) Connect() error        { return nil }
func (f *fakeClient) Close() error          { return nil }
func (f *fakeClient) IsAlive() bool         { return true }
func (f *fakeClient) CreateTime() time.Time { return f.created }

type fakePool struct {
	client Client
}

func (p *fakePool) Get() (Client, error)  { return p.client, nil }
func (p *fakePool) Put(conn Client) error { return nil }
func (p *fakePool) Close() error          { return nil }

// fakeClock records the protocol's waits without sleeping. failAt, when
// positive, makes the n-th Sleep call return failErr, simulating a caller
// whose context dies mid-sequence.
type fakeClock struct {
	sleeps  []time.Duration
	failAt  int
	failErr error
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	if c.failAt > 0 && len(c.sleeps) >= c.failAt {
		return c.failErr
	}
	return nil
}

type fakeCollector struct {
	outcomes map[string]int
	retries  int
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{outcomes: make(map[string]int)}
}

func (c *fakeCollector) IncParametrization(outcome string) { c.outcomes[outcome]++ }
func (c *fakeCollector) IncWriteRetry()                    { c.retries++ }

// newTestDevice wires a Caparoc directly to the fakes, bypassing Conn().
func newTestDevice(client Client) *Caparoc {
	c := newDefaultCaparoc()
	c.connPool = &fakePool{client: client}
	c.clock = &fakeClock{}
	return c
}

// withTopology scripts the live topology registers: the module count plus a
// channel count per module.
func (f *fakeClient) withTopology(channelCounts ...uint16) *fakeClient {
	f.regs[regConnectedModules] = uint16(len(channelCounts))
	for i, n := range channelCounts {
		f.regs[regChannelCountBase+uint16(i)] = n
	}
	return f
}
