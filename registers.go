package caparoc

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// RegisterAccess register access mode
type RegisterAccess uint8

const (
	AccessReadOnly RegisterAccess = iota
	AccessWriteOnly
	AccessReadWrite
)

func (a RegisterAccess) String() string {
	switch a {
	case AccessReadOnly:
		return "RO"
	case AccessWriteOnly:
		return "WO"
	case AccessReadWrite:
		return "RW"
	}
	return fmt.Sprintf("RegisterAccess(%d)", uint8(a))
}

// RegisterType register data type
type RegisterType uint8

const (
	TypeU16 RegisterType = iota
	TypeS16
	TypeU32
	TypeS32
	TypeString32 // 32-character string, 16 registers
)

func (t RegisterType) String() string {
	switch t {
	case TypeU16:
		return "UINT16"
	case TypeS16:
		return "INT16"
	case TypeU32:
		return "UINT32"
	case TypeS32:
		return "INT32"
	case TypeString32:
		return "STRING32"
	}
	return fmt.Sprintf("RegisterType(%d)", uint8(t))
}

// RegisterInfo describes one addressable register of the CAPAROC map. The
// catalogue is static documentation for lookup and listing; the access layer
// itself works from the address constants directly.
type RegisterInfo struct {
	Address     uint16
	Registers   uint16
	Type        RegisterType
	Access      RegisterAccess
	Name        string
	Description string
}

var registerTable = buildRegisterTable()

func buildRegisterTable() []RegisterInfo {
	table := []RegisterInfo{
		{regResetParamsPowerAndCB, 1, TypeU16, AccessWriteOnly,
			"Reset application parameters (power module and circuit breakers)",
			"Any value > 0 resets the power module and all circuit breaker modules to default settings"},
		{regChannelErrorResetAll, 1, TypeU16, AccessWriteOnly,
			"Global channel error reset",
			"Any value > 0 acknowledges the channel errors of all circuit breaker modules"},
		{regErrorCounterResetAll, 1, TypeU16, AccessWriteOnly,
			"Error counter reset",
			"Any value > 0 clears the error counters of all circuit breaker modules"},
		{regResetParamsQuint, 1, TypeU16, AccessWriteOnly,
			"Reset application parameters (QUINT)",
			"Any value > 0 resets the QUINT power supply to default settings"},
		{regProductNamePower, stringRegisters, TypeString32, AccessReadOnly,
			"Product name power module",
			"Product name of the CAPAROC feed-in module"},
		{regProductNameQuint, stringRegisters, TypeString32, AccessReadOnly,
			"Product name QUINT",
			"Product name of the QUINT power supply"},
		{regConnectedModules, 1, TypeU16, AccessReadOnly,
			"Number of connected modules",
			"Count of circuit breaker modules currently connected to the station"},
		{regGlobalStatus, 1, TypeU16, AccessReadOnly,
			"Global status",
			"System-wide status flags: undervoltage, overvoltage, cumulative channel error, cumulative 80% warning, system current too high"},
		{regTotalSystemCurrent, 1, TypeU16, AccessReadOnly,
			"Total system current",
			"Summed load current of all channels in A"},
		{regInputVoltage, 1, TypeU16, AccessReadOnly,
			"Input voltage",
			"Supply voltage in units of 10 mV"},
		{regSumNominalCurrents, 1, TypeU16, AccessReadOnly,
			"Sum of nominal currents",
			"Sum of all configured nominal currents in A"},
		{regMaxBusCycleTime, 1, TypeU16, AccessReadOnly,
			"Max bus cycle time",
			"Worst-case CAPAROC bus cycle time in ms"},
		{regInternalTemp, 1, TypeS16, AccessReadOnly,
			"Internal temperature",
			"Internal temperature of the feed-in module in degrees C"},
		{regGlobalParamLock, 1, TypeU16, AccessReadWrite,
			"Global parametrization lock",
			"0 unlocks nominal current parametrization for the whole station, 1 locks it"},
	}

	for m := 1; m <= maxModules; m++ {
		table = append(table,
			RegisterInfo{moduleNameRegister(m), stringRegisters, TypeString32, AccessReadOnly,
				fmt.Sprintf("Product name module %d", m),
				fmt.Sprintf("Product name of circuit breaker module %d", m)},
			RegisterInfo{regChannelCountBase + uint16(m-1), 1, TypeU16, AccessReadOnly,
				fmt.Sprintf("Number of channels module %d", m),
				fmt.Sprintf("Channel count of circuit breaker module %d", m)},
		)
	}

	families := []struct {
		base   uint16
		typ    RegisterType
		access RegisterAccess
		name   string
		desc   string
	}{
		{regChannelStatusBase, TypeU16, AccessReadOnly, "Channel status", "Status flags of channel %d on module %d"},
		{regLoadCurrentBase, TypeU16, AccessReadOnly, "Load current", "Actual load current of channel %d on module %d in mA"},
		{regChannelControlBase, TypeU16, AccessReadWrite, "Channel control", "Switches channel %d on module %d on (1) or off (0)"},
		{regNominalCurrentBase, TypeU16, AccessReadWrite, "Nominal current", "Nominal current of channel %d on module %d in A"},
		{regChannelLockBase, TypeU16, AccessReadWrite, "Channel parametrization lock", "0 unlocks nominal current parametrization for channel %d on module %d, 1 locks it"},
	}
	for _, f := range families {
		for m := 1; m <= maxModules; m++ {
			for ch := 1; ch <= maxChannelsPerModule; ch++ {
				table = append(table, RegisterInfo{
					Address:     channelRegister(f.base, m, ch),
					Registers:   1,
					Type:        f.typ,
					Access:      f.access,
					Name:        fmt.Sprintf("%s module %d channel %d", f.name, m, ch),
					Description: fmt.Sprintf(f.desc, ch, m),
				})
			}
		}
	}

	slices.SortFunc(table, func(a, b RegisterInfo) int {
		return int(a.Address) - int(b.Address)
	})
	return table
}

// Registers returns the full register catalogue ordered by address.
func Registers() []RegisterInfo {
	return slices.Clone(registerTable)
}

// LookupRegister finds the descriptor for an exact register address.
func LookupRegister(addr uint16) (RegisterInfo, bool) {
	i, ok := slices.BinarySearchFunc(registerTable, addr, func(r RegisterInfo, target uint16) int {
		return int(r.Address) - int(target)
	})
	if !ok {
		return RegisterInfo{}, false
	}
	return registerTable[i], true
}

// FindRegisters returns all descriptors whose name or description contains
// the pattern, case-insensitively.
func FindRegisters(pattern string) []RegisterInfo {
	pattern = strings.ToLower(pattern)
	var result []RegisterInfo
	for _, reg := range registerTable {
		if strings.Contains(strings.ToLower(reg.Name), pattern) ||
			strings.Contains(strings.ToLower(reg.Description), pattern) {
			result = append(result, reg)
		}
	}
	return result
}
