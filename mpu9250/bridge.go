package mpu9250

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	relaySettle  = 10 * time.Millisecond  // I2C master transaction to show up in EXT_SENS_DATA
	akModeSettle = 100 * time.Millisecond // AK8963 mode change
	resetSettle  = 100 * time.Millisecond
	maxRelayLen  = 15 // I2C_SLV0_CTRL length field
	magSlowSRD   = 19 // SRD the AK8963 is reprogrammed at
)

// configureRelay turns on the MPU's I2C master at 400 kHz. Safe to repeat.
func (d *Device) configureRelay() error {
	if err := d.writeVerify(MPUREG_USER_CTRL, BIT_I2C_MST_EN); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't enable I2C master")
	}
	if err := d.writeVerify(MPUREG_I2C_MST_CTRL, BIT_I2C_MST_CLK_400); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't set I2C master clock")
	}
	return nil
}

// writeAuxRegister has slave 0 write one byte to the AK8963.
func (d *Device) writeAuxRegister(register, value byte) error {
	d.log.WithFields(logrus.Fields{"ak_reg": register, "value": value}).Trace("MPU9250: AK8963 write")
	for _, w := range [...][2]byte{
		{MPUREG_I2C_SLV0_ADDR, AK8963_I2C_ADDR},
		{MPUREG_I2C_SLV0_REG, register},
		{MPUREG_I2C_SLV0_DO, value},
		{MPUREG_I2C_SLV0_CTRL, BIT_SLAVE_EN | 1},
	} {
		if err := d.writeRegister(w[0], w[1]); err != nil {
			return errors.Wrapf(err, "MPU9250 Error: couldn't write AK8963 register %X", register)
		}
	}
	d.sleep(relaySettle)
	return nil
}

// readAuxRegisters has slave 0 read count AK8963 registers into the
// EXT_SENS_DATA bank and returns them. Slave 0 keeps repeating that read at
// the sample rate afterwards.
func (d *Device) readAuxRegisters(register byte, count int) ([]byte, error) {
	if count < 1 || count > maxRelayLen {
		return nil, errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: can't relay %d bytes", count)
	}
	d.log.WithFields(logrus.Fields{"ak_reg": register, "count": count}).Trace("MPU9250: AK8963 read")
	for _, w := range [...][2]byte{
		{MPUREG_I2C_SLV0_ADDR, AK8963_I2C_ADDR | BIT_I2C_READ},
		{MPUREG_I2C_SLV0_REG, register},
		{MPUREG_I2C_SLV0_CTRL, BIT_SLAVE_EN | byte(count)},
	} {
		if err := d.writeRegister(w[0], w[1]); err != nil {
			return nil, errors.Wrapf(err, "MPU9250 Error: couldn't read AK8963 register %X", register)
		}
	}
	d.sleep(relaySettle)
	return d.readRegisters(MPUREG_EXT_SENS_DATA_00, count)
}

// readFuseSensitivity reads the AK8963 ASA values and leaves it powered down.
func (d *Device) readFuseSensitivity() (sens [3]float64, err error) {
	if err = d.writeAuxRegister(AK8963_CNTL1, AKM_POWER_DOWN); err != nil {
		return sens, errors.Wrap(ErrCalibration, err.Error())
	}
	d.sleep(akModeSettle)
	if err = d.writeAuxRegister(AK8963_CNTL1, AKM_FUSE_ROM); err != nil {
		return sens, errors.Wrap(ErrCalibration, err.Error())
	}
	d.sleep(akModeSettle)
	asa, err := d.readAuxRegisters(AK8963_ASAX, 3)
	if err != nil {
		return sens, errors.Wrap(ErrCalibration, err.Error())
	}
	for i := range sens {
		sens[i] = fuseSensitivity(asa[i])
	}
	if err = d.writeAuxRegister(AK8963_CNTL1, AKM_POWER_DOWN); err != nil {
		return sens, errors.Wrap(ErrCalibration, err.Error())
	}
	d.sleep(akModeSettle)
	return sens, nil
}

// magModeFor picks the AK8963 continuous mode for an output data rate:
// 100 Hz when the MPU runs at 100 Hz or faster, 8 Hz otherwise.
func magModeFor(srd uint8) byte {
	if srd > 9 {
		return AKM_CONT_MEAS_8HZ
	}
	return AKM_CONT_MEAS_100HZ
}

// setMagMode switches the AK8963 measurement mode and points slave 0 back at
// the data registers so EXT_SENS_DATA tracks HXL..ST2.
func (d *Device) setMagMode(mode byte) error {
	if err := d.writeAuxRegister(AK8963_CNTL1, AKM_POWER_DOWN); err != nil {
		return err
	}
	d.sleep(akModeSettle)
	if err := d.writeAuxRegister(AK8963_CNTL1, mode); err != nil {
		return err
	}
	d.sleep(akModeSettle)
	return d.startMagStream()
}

func (d *Device) startMagStream() error {
	_, err := d.readAuxRegisters(AK8963_HXL, magShadowLen)
	return err
}

// initMagnetometer brings up the AK8963: relay, reset, identity, fuse ROM,
// then continuous measurement streamed into EXT_SENS_DATA.
func (d *Device) initMagnetometer() error {
	if err := d.configureRelay(); err != nil {
		return err
	}
	if err := d.writeVerify(MPUREG_SMPLRT_DIV, magSlowSRD); err != nil {
		return err
	}
	if err := d.writeAuxRegister(AK8963_CNTL2, AKM_SOFT_RESET); err != nil {
		return err
	}
	d.sleep(resetSettle)

	wia, err := d.readAuxRegisters(AK8963_WIA, 1)
	if err != nil {
		return err
	}
	if wia[0] != WHOAMI_AK8963 {
		return errors.Wrapf(ErrIdentity, "MPU9250 Error: AK8963 WIA=%X, expected %X", wia[0], WHOAMI_AK8963)
	}

	sens, err := d.readFuseSensitivity()
	if err != nil {
		return err
	}
	d.magSens = sens
	d.commit(d.state.settings)
	d.log.WithField("asa", sens).Debug("MPU9250: AK8963 sensitivity adjustment")

	srd := d.state.settings.SampleRateDivider
	if err := d.setMagMode(magModeFor(srd)); err != nil {
		return err
	}
	if err := d.writeVerify(MPUREG_SMPLRT_DIV, srd); err != nil {
		return err
	}
	d.magReady = true
	return nil
}
