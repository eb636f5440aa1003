package caparoc

import "context"

// SetChannel switches one channel on or off.
func (c *Caparoc) SetChannel(ctx context.Context, module, channel int, on bool) error {
	conn, err := c.connPool.Get()
	if err != nil {
		return transportErr("conn", regChannelControlBase, err)
	}
	defer c.connPool.Put(conn)

	if err := validateModule(conn, module); err != nil {
		return err
	}
	if err := validateChannel(conn, module, channel); err != nil {
		return err
	}
	return writeU16(conn, channelRegister(regChannelControlBase, module, channel), boolToU16(on))
}

// ResetApplicationParams resets the power module and all circuit-breaker
// modules to their default parameters.
func (c *Caparoc) ResetApplicationParams(ctx context.Context) error {
	return c.WriteU16(ctx, regResetParamsPowerAndCB, 1)
}

// ResetChannelErrors acknowledges the channel errors of all circuit-breaker
// modules.
func (c *Caparoc) ResetChannelErrors(ctx context.Context) error {
	return c.WriteU16(ctx, regChannelErrorResetAll, 1)
}

// ResetErrorCounters clears the error counters of all circuit-breaker
// modules.
func (c *Caparoc) ResetErrorCounters(ctx context.Context) error {
	return c.WriteU16(ctx, regErrorCounterResetAll, 1)
}

// ResetApplicationParamsQuint resets the QUINT power supply to its default
// parameters.
func (c *Caparoc) ResetApplicationParamsQuint(ctx context.Context) error {
	return c.WriteU16(ctx, regResetParamsQuint, 1)
}

// ProductNamePowerModule reads the feed-in module's product name.
func (c *Caparoc) ProductNamePowerModule(ctx context.Context) (string, error) {
	return c.ReadString(ctx, regProductNamePower)
}

// ProductNameModule reads the product name of one connected module.
func (c *Caparoc) ProductNameModule(ctx context.Context, module int) (string, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return "", transportErr("conn", regProductNameModuleBase, err)
	}
	defer c.connPool.Put(conn)

	if err := validateModule(conn, module); err != nil {
		return "", err
	}
	return readString(conn, moduleNameRegister(module), stringRegisters)
}

// ProductNameQuint reads the QUINT power supply's product name.
func (c *Caparoc) ProductNameQuint(ctx context.Context) (string, error) {
	return c.ReadString(ctx, regProductNameQuint)
}
