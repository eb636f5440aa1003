package caparoc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// paramFixture scripts a two-module station ready for parametrization.
type paramFixture struct {
	client    *fakeClient
	clock     *fakeClock
	collector *fakeCollector
	dev       *Caparoc
}

func newParamFixture(t *testing.T) *paramFixture {
	t.Helper()
	client := newFakeClient().withTopology(4, 4)
	client.setString(moduleNameRegister(1), "CAPAROC E4 12-24DC/1-4A")
	client.setString(moduleNameRegister(2), "CAPAROC E1 12-24DC/1-10A")
	client.regs[regMaxBusCycleTime] = 20

	f := &paramFixture{
		client:    client,
		clock:     &fakeClock{},
		collector: newFakeCollector(),
	}
	f.dev = newTestDevice(client)
	f.dev.clock = f.clock
	f.dev.collector = f.collector
	return f
}

func TestSetNominalCurrentSuccess(t *testing.T) {
	f := newParamFixture(t)
	target := channelRegister(regNominalCurrentBase, 2, 3)
	channelLock := channelRegister(regChannelLockBase, 2, 3)

	err := f.dev.SetNominalCurrent(context.Background(), 2, 3, 6)
	require.NoError(t, err)
	require.Equal(t, uint16(6), f.client.regs[target])

	// Unlock channel before global, value write, relock global before
	// channel. Nothing else touches the device.
	require.Equal(t, []writeOp{
		{channelLock, 0},
		{regGlobalParamLock, 0},
		{target, 6},
		{regGlobalParamLock, 1},
		{channelLock, 1},
	}, f.client.writes)

	// Settle from the 20 ms bus cycle, four inter-step delays, final settle.
	require.Equal(t, []time.Duration{
		70 * time.Millisecond,
		stepDelay, stepDelay, stepDelay, stepDelay,
		finalSettle,
	}, f.clock.sleeps)

	require.Equal(t, 1, f.collector.outcomes[OutcomeSuccess])
	require.Zero(t, f.collector.retries)
}

func TestSetNominalCurrentVerificationFailure(t *testing.T) {
	f := newParamFixture(t)
	target := channelRegister(regNominalCurrentBase, 1, 1)
	channelLock := channelRegister(regChannelLockBase, 1, 1)

	// The device accepts the write but the register never changes.
	f.client.regs[target] = 2
	f.client.ignoreWrites[target] = true

	err := f.dev.SetNominalCurrent(context.Background(), 1, 1, 8)
	require.ErrorIs(t, err, ErrVerification)

	var ve *VerificationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, 1, ve.Module)
	require.Equal(t, 1, ve.Channel)
	require.Equal(t, uint16(8), ve.Want)
	require.Equal(t, writeAttempts, ve.Attempts)

	// Exactly five value writes, and both relock writes still issued.
	require.Len(t, f.client.writesTo(target), writeAttempts)
	require.Equal(t, []writeOp{{regGlobalParamLock, 0}, {regGlobalParamLock, 1}}, f.client.writesTo(regGlobalParamLock))
	require.Equal(t, []writeOp{{channelLock, 0}, {channelLock, 1}}, f.client.writesTo(channelLock))

	require.Equal(t, 1, f.collector.outcomes[OutcomeVerificationFailure])
	require.Equal(t, writeAttempts, f.collector.retries)
}

func TestSetNominalCurrentPolicyRejected(t *testing.T) {
	f := newParamFixture(t)
	f.client.setString(moduleNameRegister(1), "CAPAROC E2 12-24DC/2-10A")

	err := f.dev.SetNominalCurrent(context.Background(), 1, 2, 4)
	require.ErrorIs(t, err, ErrPolicy)

	var pe *PolicyError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, 1, pe.Module)
	require.Contains(t, pe.ProductName, manualDialMarker)

	// Rejected before any register write or delay.
	require.Empty(t, f.client.writes)
	require.Empty(t, f.clock.sleeps)
	require.Equal(t, 1, f.collector.outcomes[OutcomePolicyRejected])
}

func TestSetNominalCurrentUnreadableProductNameProceeds(t *testing.T) {
	f := newParamFixture(t)
	f.client.failReads[moduleNameRegister(2)] = true

	err := f.dev.SetNominalCurrent(context.Background(), 2, 1, 4)
	require.NoError(t, err)
	require.Equal(t, uint16(4), f.client.regs[channelRegister(regNominalCurrentBase, 2, 1)])
}

func TestSetNominalCurrentGlobalUnlockFailure(t *testing.T) {
	f := newParamFixture(t)
	target := channelRegister(regNominalCurrentBase, 1, 1)
	channelLock := channelRegister(regChannelLockBase, 1, 1)
	f.client.writeHook = func(addr, value uint16) error {
		if addr == regGlobalParamLock && value == 0 {
			return errFakeIO
		}
		return nil
	}

	err := f.dev.SetNominalCurrent(context.Background(), 1, 1, 4)
	require.ErrorIs(t, err, ErrTransport)

	// The value write never happened; only the channel unlock preceded the
	// failure.
	require.Empty(t, f.client.writesTo(target))
	require.Equal(t, []writeOp{{channelLock, 0}}, f.client.writes)
	require.Equal(t, 1, f.collector.outcomes[OutcomeTransportFailure])
}

func TestSetNominalCurrentChannelUnlockFailure(t *testing.T) {
	f := newParamFixture(t)
	channelLock := channelRegister(regChannelLockBase, 1, 1)
	f.client.writeHook = func(addr, value uint16) error {
		if addr == channelLock {
			return errFakeIO
		}
		return nil
	}

	err := f.dev.SetNominalCurrent(context.Background(), 1, 1, 4)
	require.ErrorIs(t, err, ErrTransport)
	require.Empty(t, f.client.writes)
}

func TestSetNominalCurrentBusCycleFallback(t *testing.T) {
	f := newParamFixture(t)
	f.client.failReads[regMaxBusCycleTime] = true

	err := f.dev.SetNominalCurrent(context.Background(), 1, 1, 4)
	require.NoError(t, err)
	require.Equal(t, busCycleFallback+settleMargin, f.clock.sleeps[0])
}

func TestSetNominalCurrentRetriesFailedWrites(t *testing.T) {
	f := newParamFixture(t)
	target := channelRegister(regNominalCurrentBase, 1, 1)
	failures := 0
	f.client.writeHook = func(addr, value uint16) error {
		if addr == target && failures < 2 {
			failures++
			return errFakeIO
		}
		return nil
	}

	err := f.dev.SetNominalCurrent(context.Background(), 1, 1, 4)
	require.NoError(t, err)
	require.Equal(t, 2, failures)
	require.Equal(t, 2, f.collector.retries)
	require.Equal(t, uint16(4), f.client.regs[target])
}

func TestSetNominalCurrentRelockFailureFailsSuccessPath(t *testing.T) {
	f := newParamFixture(t)
	target := channelRegister(regNominalCurrentBase, 1, 1)
	f.client.writeHook = func(addr, value uint16) error {
		if addr == regGlobalParamLock && value == 1 {
			return errFakeIO
		}
		return nil
	}

	err := f.dev.SetNominalCurrent(context.Background(), 1, 1, 4)
	// The value is on the device but it could not be re-secured.
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, uint16(4), f.client.regs[target])
	require.Equal(t, 1, f.collector.outcomes[OutcomeTransportFailure])
}

func TestSetNominalCurrentCancelledAfterUnlockRelocks(t *testing.T) {
	f := newParamFixture(t)
	channelLock := channelRegister(regChannelLockBase, 1, 1)
	// First sleep is the settle; the second follows the channel unlock.
	f.clock.failAt = 2
	f.clock.failErr = context.Canceled

	err := f.dev.SetNominalCurrent(context.Background(), 1, 1, 4)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, []writeOp{
		{channelLock, 0},
		{regGlobalParamLock, 1},
		{channelLock, 1},
	}, f.client.writes)
	require.Equal(t, 1, f.collector.outcomes[OutcomeAborted])
}

func TestSetNominalCurrentCancelledBeforeUnlockDoesNotWrite(t *testing.T) {
	f := newParamFixture(t)
	f.clock.failAt = 1
	f.clock.failErr = context.Canceled

	err := f.dev.SetNominalCurrent(context.Background(), 1, 1, 4)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, f.client.writes)
}

func TestSetNominalCurrentValidatesIdentifier(t *testing.T) {
	f := newParamFixture(t)

	require.ErrorIs(t, f.dev.SetNominalCurrent(context.Background(), 0, 1, 4), ErrValidation)
	require.ErrorIs(t, f.dev.SetNominalCurrent(context.Background(), 3, 1, 4), ErrValidation)
	require.ErrorIs(t, f.dev.SetNominalCurrent(context.Background(), 1, 5, 4), ErrValidation)
	require.Empty(t, f.client.writes)
}

func TestNominalCurrentRead(t *testing.T) {
	f := newParamFixture(t)
	f.client.regs[channelRegister(regNominalCurrentBase, 2, 4)] = 10

	got, err := f.dev.NominalCurrent(context.Background(), 2, 4)
	require.NoError(t, err)
	require.Equal(t, uint16(10), got)

	_, err = f.dev.NominalCurrent(context.Background(), 3, 1)
	require.ErrorIs(t, err, ErrValidation)
}
