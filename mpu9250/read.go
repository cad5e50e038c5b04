package mpu9250

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

// Sample is one decoded measurement set, already rotated into the body frame.
type Sample struct {
	Accel Vec3    // m/s²
	Gyro  Vec3    // rad/s
	Mag   Vec3    // µT
	Temp  float64 // °C, die temperature

	T           time.Time // Host time the burst was read
	Valid       bool      // A burst has been decoded at least once
	MagOverflow bool      // AK8963 reported magnetic overflow; Mag holds the previous value
}

/*
Read checks the data ready bit and, if set, burst reads accel, temperature,
gyro and the magnetometer shadow registers in one transaction and decodes them.
It returns false with a nil error when no new data was ready; the cached Sample
is then left exactly as it was.
*/
func (d *Device) Read() (bool, error) {
	fresh, err := d.read()
	if d.observer != nil {
		d.observer(fresh, err)
	}
	return fresh, err
}

func (d *Device) read() (bool, error) {
	d.fresh = false
	if !d.ready {
		return false, ErrNotReady
	}

	status, err := d.readRegister(MPUREG_INT_STATUS)
	if err != nil {
		return false, errors.Wrap(err, "MPU9250 Error: couldn't read interrupt status")
	}
	if status&BIT_RAW_DATA_RDY == 0 {
		return false, nil
	}

	buf, err := d.readRegisters(MPUREG_ACCEL_XOUT_H, burstLen)
	if err != nil {
		return false, errors.Wrap(err, "MPU9250 Error: burst read failed")
	}
	d.sample = d.decode(buf, d.sample)
	d.sample.T = time.Now()
	d.fresh = true
	return true, nil
}

// decode turns a burst starting at ACCEL_XOUT_H into a Sample. prev supplies
// the magnetometer vector kept on overflow.
func (d *Device) decode(buf []byte, prev Sample) Sample {
	sc := d.state.scales
	r := d.rotation

	var accel, gyro, mag Vec3
	for i := 0; i < 3; i++ {
		accel[i] = float64(int16(binary.BigEndian.Uint16(buf[2*i:]))) * sc.Accel
		gyro[i] = float64(int16(binary.BigEndian.Uint16(buf[8+2*i:]))) * sc.Gyro
		// AK8963 data is little endian.
		mag[i] = float64(int16(binary.LittleEndian.Uint16(buf[14+2*i:]))) * sc.Mag[i]
	}
	rawTemp := int16(binary.BigEndian.Uint16(buf[6:]))

	s := Sample{
		Accel: r.Apply(accel),
		Gyro:  r.Apply(gyro),
		Mag:   r.Apply(mag),
		Temp:  float64(rawTemp)/sc.Temp + tempOffset,
		Valid: true,
	}
	if buf[burstLen-1]&AKM_OVERFLOW != 0 {
		s.Mag = prev.Mag
		s.MagOverflow = true
	}
	return s
}

// Sample returns the most recently decoded measurement set.
func (d *Device) Sample() Sample {
	return d.sample
}

// IMU returns the last acceleration (m/s²) and angular rate (rad/s).
func (d *Device) IMU() (accel, gyro Vec3) {
	return d.sample.Accel, d.sample.Gyro
}

// Mag returns the last magnetic field in µT.
func (d *Device) Mag() Vec3 {
	return d.sample.Mag
}

// DieTemperature returns the last die temperature in °C.
func (d *Device) DieTemperature() float64 {
	return d.sample.Temp
}

// Fresh reports whether the last Read found new data.
func (d *Device) Fresh() bool {
	return d.fresh
}
