package mpu9250

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	matrix "github.com/skelterjohn/go.matrix"
)

/*
Begin resets the chip and brings it up with the configured Settings:
reset, clock select, identity check, ranges, filter, sample rate, AK8963
bring-up and interrupt pin setup, in that order. It stops at the first stage
that fails and returns an *InitError naming it; the device is then not Ready
and Read is refused until Begin succeeds.
*/
func (d *Device) Begin() error {
	d.ready = false
	d.magReady = false
	d.fresh = false

	want := d.state.settings
	stages := []struct {
		stage Stage
		run   func() error
	}{
		{StageReset, d.reset},
		{StageClockSelect, d.selectClock},
		{StageIdentityCheck, d.checkIdentity},
		{StageRangeConfig, func() error {
			if err := d.SetAccelRange(want.AccelRange); err != nil {
				return err
			}
			return d.SetGyroRange(want.GyroRange)
		}},
		{StageFilterConfig, func() error { return d.SetFilterBandwidth(want.Bandwidth) }},
		{StageSampleRateConfig, func() error { return d.SetSampleRateDivider(want.SampleRateDivider) }},
		{StageAuxInit, d.initMagnetometer},
		{StageInterruptReady, d.configureInterruptPin},
	}

	for _, s := range stages {
		d.log.WithField("stage", s.stage.String()).Debug("MPU9250: init")
		if err := s.run(); err != nil {
			d.log.WithError(err).WithField("stage", s.stage.String()).Error("MPU9250: initialization failed")
			return &InitError{Stage: s.stage, Err: err}
		}
	}

	d.ready = true
	d.log.WithFields(logrus.Fields{
		"whoami":  d.whoAmI,
		"accel":   d.state.settings.AccelRange.String(),
		"gyro":    d.state.settings.GyroRange.String(),
		"dlpf":    d.state.settings.Bandwidth.String(),
		"rate_hz": d.OutputRate(),
	}).Info("MPU9250: ready")
	return nil
}

func (d *Device) reset() error {
	if err := d.writeRegister(MPUREG_PWR_MGMT_1, BIT_H_RESET); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't reset")
	}
	d.sleep(resetSettle)
	return nil
}

func (d *Device) selectClock() error {
	if err := d.writeVerify(MPUREG_PWR_MGMT_1, INV_CLK_PLL); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't select PLL clock")
	}
	// Turn on all gyro, all accel
	if err := d.writeVerify(MPUREG_PWR_MGMT_2, BIT_SENSORS_ENABLE); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't enable sensors")
	}
	return nil
}

func (d *Device) checkIdentity() error {
	who, err := d.readRegister(MPUREG_WHOAMI)
	if err != nil {
		return err
	}
	d.whoAmI = who
	if who != WHOAMI_MPU9250 && who != WHOAMI_MPU9255 {
		return errors.Wrapf(ErrIdentity, "MPU9250 Error: WHO_AM_I=%X", who)
	}
	return nil
}

func (d *Device) configureInterruptPin() error {
	if err := d.writeVerify(MPUREG_INT_PIN_CFG, BIT_INT_PULSE_50US); err != nil {
		return err
	}
	return d.DisableDataReadyInterrupt()
}

// SetAccelRange sets the accelerometer full scale. On failure the previous
// range and scale factor are kept.
func (d *Device) SetAccelRange(r AccelRange) error {
	if !r.Valid() {
		return errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %s is not a valid accel range", r)
	}
	if err := d.writeVerify(MPUREG_ACCEL_CONFIG, byte(r)); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't set accel range")
	}
	s := d.state.settings
	s.AccelRange = r
	d.commit(s)
	return nil
}

// AccelRange returns the current accelerometer full scale.
func (d *Device) AccelRange() AccelRange {
	return d.state.settings.AccelRange
}

// SetGyroRange sets the gyro full scale. On failure the previous range and
// scale factor are kept.
func (d *Device) SetGyroRange(r GyroRange) error {
	if !r.Valid() {
		return errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %s is not a valid gyro range", r)
	}
	if err := d.writeVerify(MPUREG_GYRO_CONFIG, byte(r)); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't set gyro range")
	}
	s := d.state.settings
	s.GyroRange = r
	d.commit(s)
	return nil
}

// GyroRange returns the current gyro full scale.
func (d *Device) GyroRange() GyroRange {
	return d.state.settings.GyroRange
}

// SetFilterBandwidth sets the accel and gyro low pass filters together.
func (d *Device) SetFilterBandwidth(b DlpfBandwidth) error {
	if !b.Valid() {
		return errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %s is not a valid DLPF bandwidth", b)
	}
	if err := d.writeVerify(MPUREG_ACCEL_CONFIG_2, byte(b)); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't set Accel LPF")
	}
	if err := d.writeVerify(MPUREG_CONFIG, byte(b)); err != nil {
		// Don't leave the two filters disagreeing.
		d.writeRegister(MPUREG_ACCEL_CONFIG_2, byte(d.state.settings.Bandwidth))
		return errors.Wrap(err, "MPU9250 Error: couldn't set Gyro LPF")
	}
	s := d.state.settings
	s.Bandwidth = b
	d.commit(s)
	return nil
}

// FilterBandwidth returns the current low pass filter setting.
func (d *Device) FilterBandwidth() DlpfBandwidth {
	return d.state.settings.Bandwidth
}

// SetSampleRateDivider sets the output rate to 1000/(srd+1) Hz. Once the
// magnetometer is running its measurement mode is switched to match, which
// blocks for a few hundred milliseconds.
func (d *Device) SetSampleRateDivider(srd uint8) error {
	old := d.state.settings.SampleRateDivider
	if d.magReady {
		// The AK8963 is reprogrammed at a slow rate, then the stream restarted.
		if err := d.writeVerify(MPUREG_SMPLRT_DIV, magSlowSRD); err != nil {
			return errors.Wrap(err, "MPU9250 Error: couldn't set sample rate")
		}
		if err := d.setMagMode(magModeFor(srd)); err != nil {
			d.writeRegister(MPUREG_SMPLRT_DIV, old)
			return errors.Wrap(err, "MPU9250 Error: couldn't set magnetometer rate")
		}
	}
	if err := d.writeVerify(MPUREG_SMPLRT_DIV, srd); err != nil {
		if d.magReady && magModeFor(old) != magModeFor(srd) {
			d.writeRegister(MPUREG_SMPLRT_DIV, magSlowSRD)
			d.setMagMode(magModeFor(old))
		}
		d.writeRegister(MPUREG_SMPLRT_DIV, old)
		return errors.Wrap(err, "MPU9250 Error: couldn't set sample rate")
	}
	s := d.state.settings
	s.SampleRateDivider = srd
	d.commit(s)
	return nil
}

// SampleRateDivider returns the current sample rate divider.
func (d *Device) SampleRateDivider() uint8 {
	return d.state.settings.SampleRateDivider
}

// OutputRate returns the current data output rate in Hz.
func (d *Device) OutputRate() float64 {
	return OutputRate(d.state.settings.SampleRateDivider)
}

// SetRotation sets the matrix applied to accel, gyro and mag vectors.
func (d *Device) SetRotation(m Mat3) {
	d.rotation = m
}

// SetRotationMatrix is SetRotation for a 3×3 go.matrix matrix.
func (d *Device) SetRotationMatrix(m matrix.MatrixRO) error {
	r, err := Mat3FromDense(m)
	if err != nil {
		return err
	}
	d.rotation = r
	return nil
}

// Rotation returns the current sensor to body rotation.
func (d *Device) Rotation() Mat3 {
	return d.rotation
}

// EnableDataReadyInterrupt has the INT pin pulse for 50 µs on each new sample.
// Attaching a host handler is separate, see AttachDataReady.
func (d *Device) EnableDataReadyInterrupt() error {
	if err := d.writeVerify(MPUREG_INT_PIN_CFG, BIT_INT_PULSE_50US); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't configure interrupt pin")
	}
	if err := d.writeVerify(MPUREG_INT_ENABLE, BIT_RAW_RDY_EN); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't enable interrupts")
	}
	return nil
}

// DisableDataReadyInterrupt stops the data ready pulses.
func (d *Device) DisableDataReadyInterrupt() error {
	if err := d.writeVerify(MPUREG_INT_ENABLE, BIT_INT_DISABLE); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't disable interrupts")
	}
	return nil
}
