package caparoc

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NominalCurrent reads a channel's configured nominal current in amperes.
func (c *Caparoc) NominalCurrent(ctx context.Context, module, channel int) (uint16, error) {
	conn, err := c.connPool.Get()
	if err != nil {
		return 0, transportErr("conn", regNominalCurrentBase, err)
	}
	defer c.connPool.Put(conn)

	if err := validateModule(conn, module); err != nil {
		return 0, err
	}
	if err := validateChannel(conn, module, channel); err != nil {
		return 0, err
	}
	return readU16(conn, channelRegister(regNominalCurrentBase, module, channel))
}

// SetNominalCurrent changes a channel's nominal current in amperes.
//
// The device has no atomic set-and-confirm, so the change runs as a timed
// sequence on one connection: settle, unlock the channel lock then the
// global lock, write the value with read-back verification (up to 5
// attempts), relock, settle again. Runs are serialized per device because
// the global parametrization lock is a single device-wide resource.
//
// Failure modes, in the order they are detected:
//   - ErrValidation: module/channel outside the live topology, or the
//     topology itself unreadable. No register was written.
//   - ErrPolicy: the module takes its nominal current from rotary dials.
//     No register was written.
//   - ErrTransport: a lock or value write did not complete. The locks may
//     be left partially open when an unlock write itself failed.
//   - ErrVerification: the read-back never matched within the retry bound.
//     Both relock writes were still issued; the register may hold either
//     the old or the new value, so re-read before manual recovery.
//
// On the success path a failed relock write fails the whole call even
// though the value was verified: the device could not be re-secured.
func (c *Caparoc) SetNominalCurrent(ctx context.Context, module, channel int, current uint16) error {
	c.paramMu.Lock()
	defer c.paramMu.Unlock()

	conn, err := c.connPool.Get()
	if err != nil {
		return transportErr("conn", regNominalCurrentBase, err)
	}
	defer c.connPool.Put(conn)

	if err := validateModule(conn, module); err != nil {
		return err
	}
	if err := validateChannel(conn, module, channel); err != nil {
		return err
	}

	logger := c.logger.With().
		Int("module", module).
		Int("channel", channel).
		Uint16("nominal_current", current).
		Logger()

	// Rotary-dial modules ignore parametrization writes; reject before any
	// lock is touched. An unreadable product name does not block the
	// attempt.
	if name, err := readString(conn, moduleNameRegister(module), stringRegisters); err == nil && strings.Contains(name, manualDialMarker) {
		c.collector.IncParametrization(OutcomePolicyRejected)
		return &PolicyError{Module: module, ProductName: name}
	}

	target := channelRegister(regNominalCurrentBase, module, channel)
	channelLock := channelRegister(regChannelLockBase, module, channel)

	// Let prior bus traffic drain before the lock sequence. The device
	// reports its own worst-case bus cycle time; fall back when the read
	// fails.
	cycle := busCycleFallback
	if ms, err := readU16(conn, regMaxBusCycleTime); err == nil {
		cycle = time.Duration(ms) * time.Millisecond
	}
	if err := c.clock.Sleep(ctx, cycle+settleMargin); err != nil {
		return err
	}

	logger.Debug().Dur("settle", cycle+settleMargin).Msg("unlocking nominal current parametrization")

	if err := writeU16(conn, channelLock, 0); err != nil {
		c.collector.IncParametrization(OutcomeTransportFailure)
		return err
	}
	if err := c.clock.Sleep(ctx, stepDelay); err != nil {
		return c.relockAfterAbort(conn, channelLock, logger, err)
	}
	if err := writeU16(conn, regGlobalParamLock, 0); err != nil {
		c.collector.IncParametrization(OutcomeTransportFailure)
		return err
	}
	if err := c.clock.Sleep(ctx, stepDelay); err != nil {
		return c.relockAfterAbort(conn, channelLock, logger, err)
	}

	verified := false
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if err := writeU16(conn, target, current); err != nil {
			logger.Debug().Err(err).Int("attempt", attempt).Msg("nominal current write failed")
			c.collector.IncWriteRetry()
			if err := c.clock.Sleep(ctx, stepDelay); err != nil {
				return c.relockAfterAbort(conn, channelLock, logger, err)
			}
			continue
		}
		if err := c.clock.Sleep(ctx, stepDelay); err != nil {
			return c.relockAfterAbort(conn, channelLock, logger, err)
		}
		readBack, err := readU16(conn, target)
		if err == nil && readBack == current {
			verified = true
			logger.Debug().Int("attempt", attempt).Msg("nominal current verified")
			break
		}
		logger.Debug().Err(err).Int("attempt", attempt).Uint16("read_back", readBack).Msg("nominal current not confirmed")
		c.collector.IncWriteRetry()
		if err := c.clock.Sleep(ctx, stepDelay); err != nil {
			return c.relockAfterAbort(conn, channelLock, logger, err)
		}
	}

	if !verified {
		// The register may or may not have taken the value. Relock anyway;
		// relock failures are reported but the outcome stays a verification
		// failure.
		if err := writeU16(conn, regGlobalParamLock, 1); err != nil {
			logger.Warn().Err(err).Msg("relock global lock after failed verification")
		}
		if err := writeU16(conn, channelLock, 1); err != nil {
			logger.Warn().Err(err).Msg("relock channel lock after failed verification")
		}
		c.collector.IncParametrization(OutcomeVerificationFailure)
		return &VerificationError{Module: module, Channel: channel, Want: current, Attempts: writeAttempts}
	}

	// The value is verified, but the operation only counts as successful
	// once the device is re-secured.
	if err := writeU16(conn, regGlobalParamLock, 1); err != nil {
		c.collector.IncParametrization(OutcomeTransportFailure)
		return err
	}
	if err := c.clock.Sleep(ctx, stepDelay); err != nil {
		return c.relockAfterAbort(conn, channelLock, logger, err)
	}
	if err := writeU16(conn, channelLock, 1); err != nil {
		c.collector.IncParametrization(OutcomeTransportFailure)
		return err
	}

	if err := c.clock.Sleep(ctx, finalSettle); err != nil {
		return err
	}

	logger.Debug().Msg("nominal current parametrization complete")
	c.collector.IncParametrization(OutcomeSuccess)
	return nil
}

// relockAfterAbort re-secures both locks after the caller's context was
// cancelled mid-sequence. The unlock has already happened, so the relock
// writes are issued on every abort path; their own failures are only
// logged.
func (c *Caparoc) relockAfterAbort(conn Client, channelLock uint16, logger zerolog.Logger, cause error) error {
	logger.Debug().Err(cause).Msg("parametrization aborted, relocking")
	if err := writeU16(conn, regGlobalParamLock, 1); err != nil {
		logger.Warn().Err(err).Msg("relock global lock after abort")
	}
	if err := writeU16(conn, channelLock, 1); err != nil {
		logger.Warn().Err(err).Msg("relock channel lock after abort")
	}
	c.collector.IncParametrization(OutcomeAborted)
	return cause
}
