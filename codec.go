package caparoc

import (
	"context"
	"encoding/binary"
	"errors"
)

var errShortResponse = errors.New("short response")

// The codec works on one pooled client so multi-step sequences can keep all
// their reads and writes on a single connection. The exported ReadU16 etc.
// wrappers below check a connection out per call.
//
// All multi-register values are big-endian at register granularity: the most
// significant word lives at the lowest address.

func readU16(conn Client, addr uint16) (uint16, error) {
	data, err := conn.ReadHoldingRegisters(addr, 1)
	if err != nil {
		return 0, transportErr("read u16", addr, err)
	}
	if len(data) < 2 {
		return 0, transportErr("read u16", addr, errShortResponse)
	}
	return binary.BigEndian.Uint16(data), nil
}

func readU32(conn Client, addr uint16) (uint32, error) {
	data, err := conn.ReadHoldingRegisters(addr, 2)
	if err != nil {
		return 0, transportErr("read u32", addr, err)
	}
	if len(data) < 4 {
		return 0, transportErr("read u32", addr, errShortResponse)
	}
	return binary.BigEndian.Uint32(data), nil
}

// readString reads a fixed string field of the given register count. Each
// register carries two bytes, high byte first; the result is truncated at
// the first NUL.
func readString(conn Client, addr uint16, registers uint16) (string, error) {
	data, err := conn.ReadHoldingRegisters(addr, registers)
	if err != nil {
		return "", transportErr("read string", addr, err)
	}
	if len(data) < int(registers)*2 {
		return "", transportErr("read string", addr, errShortResponse)
	}
	return byte2String(data), nil
}

func writeU16(conn Client, addr uint16, value uint16) error {
	if _, err := conn.WriteSingleRegister(addr, value); err != nil {
		return transportErr("write u16", addr, err)
	}
	return nil
}

// writeU32 transmits both words in one request so the device never sees a
// half-written value.
func writeU32(conn Client, addr uint16, value uint32) error {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, value)
	if _, err := conn.WriteMultipleRegisters(addr, 2, data); err != nil {
		return transportErr("write u32", addr, err)
	}
	return nil
}

// ReadU16 reads a single 16-bit register.
func (c *Caparoc) ReadU16(ctx context.Context, addr uint16) (uint16, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return 0, transportErr("conn", addr, err)
	}
	defer c.connPool.Put(conn)
	return readU16(conn, addr)
}

// ReadU32 reads a 32-bit value from two consecutive registers, high word
// first.
func (c *Caparoc) ReadU32(ctx context.Context, addr uint16) (uint32, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return 0, transportErr("conn", addr, err)
	}
	defer c.connPool.Put(conn)
	return readU32(conn, addr)
}

// ReadString reads a String32 field (16 registers, up to 32 bytes of text).
func (c *Caparoc) ReadString(ctx context.Context, addr uint16) (string, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return "", transportErr("conn", addr, err)
	}
	defer c.connPool.Put(conn)
	return readString(conn, addr, stringRegisters)
}

// WriteU16 writes a single 16-bit register.
func (c *Caparoc) WriteU16(ctx context.Context, addr uint16, value uint16) error {
	conn, err := c.connPool.Get()
	if err != nil {
		return transportErr("conn", addr, err)
	}
	defer c.connPool.Put(conn)
	return writeU16(conn, addr, value)
}

// WriteU32 writes a 32-bit value to two consecutive registers, high word
// first.
func (c *Caparoc) WriteU32(ctx context.Context, addr uint16, value uint32) error {
	conn, err := c.connPool.Get()
	if err != nil {
		return transportErr("conn", addr, err)
	}
	defer c.connPool.Put(conn)
	return writeU32(conn, addr, value)
}
