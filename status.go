package caparoc

import "context"

// GlobalStatus is the decoded system-wide status register (0x6000).
type GlobalStatus struct {
	Undervoltage           bool
	Overvoltage            bool
	CumulativeChannelError bool
	Cumulative80Warning    bool
	SystemCurrentTooHigh   bool
}

// ChannelStatus is the decoded per-channel status register.
type ChannelStatus struct {
	Warning80Percent     bool
	Overload             bool
	ShortCircuit         bool
	HardwareError        bool
	VoltageError         bool
	ModuleCurrentTooHigh bool
	SystemCurrentTooHigh bool
}

// DecodeGlobalStatus maps the raw global status register to its flags.
func DecodeGlobalStatus(value uint16) GlobalStatus {
	return GlobalStatus{
		Undervoltage:           value&0x01 != 0,
		Overvoltage:            value&0x02 != 0,
		CumulativeChannelError: value&0x04 != 0,
		Cumulative80Warning:    value&0x08 != 0,
		SystemCurrentTooHigh:   value&0x10 != 0,
	}
}

// DecodeChannelStatus maps a raw channel status register to its flags.
func DecodeChannelStatus(value uint16) ChannelStatus {
	return ChannelStatus{
		Warning80Percent:     value&0x01 != 0,
		Overload:             value&0x02 != 0,
		ShortCircuit:         value&0x04 != 0,
		HardwareError:        value&0x08 != 0,
		VoltageError:         value&0x10 != 0,
		ModuleCurrentTooHigh: value&0x20 != 0,
		SystemCurrentTooHigh: value&0x40 != 0,
	}
}

// GlobalStatus reads and decodes the system-wide status register.
func (c *Caparoc) GlobalStatus(ctx context.Context) (GlobalStatus, error) {
	value, err := c.ReadU16(ctx, regGlobalStatus)
	if err != nil {
		return GlobalStatus{}, err
	}
	return DecodeGlobalStatus(value), nil
}

// ChannelStatus reads and decodes the status register of one channel.
func (c *Caparoc) ChannelStatus(ctx context.Context, module, channel int) (ChannelStatus, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return ChannelStatus{}, transportErr("conn", regChannelStatusBase, err)
	}
	defer c.connPool.Put(conn)

	if err := validateModule(conn, module); err != nil {
		return ChannelStatus{}, err
	}
	if err := validateChannel(conn, module, channel); err != nil {
		return ChannelStatus{}, err
	}
	value, err := readU16(conn, channelRegister(regChannelStatusBase, module, channel))
	if err != nil {
		return ChannelStatus{}, err
	}
	return DecodeChannelStatus(value), nil
}

// LoadCurrent reads a channel's actual load current in milliamperes.
func (c *Caparoc) LoadCurrent(ctx context.Context, module, channel int) (uint16, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return 0, transportErr("conn", regLoadCurrentBase, err)
	}
	defer c.connPool.Put(conn)

	if err := validateModule(conn, module); err != nil {
		return 0, err
	}
	if err := validateChannel(conn, module, channel); err != nil {
		return 0, err
	}
	return readU16(conn, channelRegister(regLoadCurrentBase, module, channel))
}

// TotalSystemCurrent reads the summed load current of all channels in
// amperes.
func (c *Caparoc) TotalSystemCurrent(ctx context.Context) (uint16, error) {
	return c.ReadU16(ctx, regTotalSystemCurrent)
}

// InputVoltage reads the supply voltage in units of 10 mV.
func (c *Caparoc) InputVoltage(ctx context.Context) (uint16, error) {
	return c.ReadU16(ctx, regInputVoltage)
}

// SumOfNominalCurrents reads the sum of all configured nominal currents in
// amperes.
func (c *Caparoc) SumOfNominalCurrents(ctx context.Context) (uint16, error) {
	return c.ReadU16(ctx, regSumNominalCurrents)
}

// InternalTemperature reads the feed-in module's internal temperature in
// degrees Celsius.
func (c *Caparoc) InternalTemperature(ctx context.Context) (int16, error) {
	value, err := c.ReadU16(ctx, regInternalTemp)
	if err != nil {
		return 0, err
	}
	return int16(value), nil
}

// MaxBusCycleTime reads the device's worst-case bus cycle time in
// milliseconds. The parametrization protocol derives its settle delay from
// it.
func (c *Caparoc) MaxBusCycleTime(ctx context.Context) (uint16, error) {
	return c.ReadU16(ctx, regMaxBusCycleTime)
}
