package caparoc

import "time"

// ConnType connection type
type ConnType uint8

const (
	ConnTypeTCP ConnType = 1
	ConnTypeRTU ConnType = 2
)

// Fixed single registers.
const (
	regResetParamsPowerAndCB uint16 = 0x0010 // WO, any value > 0 triggers
	regChannelErrorResetAll  uint16 = 0x0011 // WO, any value > 0 triggers
	regErrorCounterResetAll  uint16 = 0x0012 // WO, any value > 0 triggers
	regResetParamsQuint      uint16 = 0x0020 // WO, any value > 0 triggers

	regProductNamePower uint16 = 0x1000 // String32
	regProductNameQuint uint16 = 0x1110 // String32

	regConnectedModules uint16 = 0x2000
	regChannelCountBase uint16 = 0x2001 // + (module - 1)

	regGlobalStatus       uint16 = 0x6000
	regTotalSystemCurrent uint16 = 0x6001
	regInputVoltage       uint16 = 0x6002 // 10 mV units
	regSumNominalCurrents uint16 = 0x6005
	regMaxBusCycleTime    uint16 = 0x6006 // milliseconds
	regInternalTemp       uint16 = 0x6009 // int16, degrees C

	regGlobalParamLock uint16 = 0xC001
)

// Per-channel register families. Every family lays its channels out as
// base + (module-1)*4 + (channel-1); see channelRegister.
const (
	regChannelStatusBase  uint16 = 0x6010
	regLoadCurrentBase    uint16 = 0x6050
	regChannelControlBase uint16 = 0xC010
	regNominalCurrentBase uint16 = 0xC050
	regChannelLockBase    uint16 = 0xC090
)

// Per-module product name strings: 0x1010, 0x1020, ... one String32 slot per
// module.
const (
	regProductNameModuleBase   uint16 = 0x1010
	regProductNameModuleStride uint16 = 0x10
)

const (
	// maxModules and maxChannelsPerModule bound the register map, not the
	// live topology. Validation always reads the actual counts.
	maxModules           = 16
	maxChannelsPerModule = 4

	// stringRegisters is the width of a String32 field: 16 registers,
	// two bytes each.
	stringRegisters uint16 = 16
)

// Timing and retry margins for the parametrization protocol. Apart from the
// bus cycle time, which is read from the device, these are conservative
// empirical values, not device-reported constants.
const (
	// busCycleFallback substitutes for an unreadable max-bus-cycle register.
	busCycleFallback = 100 * time.Millisecond
	// settleMargin is added on top of the bus cycle time before the
	// lock sequence starts.
	settleMargin = 50 * time.Millisecond
	// stepDelay separates consecutive lock, write and verify accesses.
	stepDelay = 50 * time.Millisecond
	// finalSettle lets the device settle after a fully successful sequence.
	finalSettle = 100 * time.Millisecond
	// writeAttempts bounds the write-and-verify loop.
	writeAttempts = 5
)

// manualDialMarker identifies modules whose nominal current is fixed by
// rotary dials; register writes to them are rejected up front.
const manualDialMarker = "CAPAROC E2 12-24DC/2-10A"

// channelRegister resolves the register address for a per-channel family.
// Module and channel numbers are 1-based; the device interleaves four
// channel slots per module regardless of how many channels the module
// actually has.
func channelRegister(base uint16, module, channel int) uint16 {
	return base + uint16(module-1)*4 + uint16(channel-1)
}

// moduleNameRegister resolves the String32 slot holding a module's product
// name.
func moduleNameRegister(module int) uint16 {
	return regProductNameModuleBase + uint16(module-1)*regProductNameModuleStride
}
