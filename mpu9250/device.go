// Package mpu9250 drives an InvenSense MPU-9250 (or MPU-9255) 9DoF chip over
// I2C or SPI, including the AK8963 magnetometer that sits behind the MPU's
// internal I2C master.
//
// A Device has no internal locking. It must be owned by one goroutine at a
// time; if Read is driven from a data ready interrupt, disable the interrupt
// around configuration changes.
package mpu9250

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// state ties the configuration to the scale factors derived from it, so the
// two are always replaced together.
type state struct {
	settings Settings
	scales   Scales
}

// Device represents one MPU-9250 bound to a single bus.
type Device struct {
	bus   Transport
	log   *logrus.Entry
	sleep func(time.Duration)

	state    state
	rotation Mat3
	magSens  [3]float64 // AK8963 fuse ROM sensitivity adjustment
	whoAmI   byte
	magReady bool
	ready    bool

	sample   Sample
	fresh    bool
	observer func(fresh bool, err error)

	pin InterruptPin
}

// Option customizes a Device at construction.
type Option func(*Device)

// WithLogger replaces the default logrus logger.
func WithLogger(l *logrus.Entry) Option {
	return func(d *Device) {
		if l != nil {
			d.log = l
		}
	}
}

// WithSleep replaces time.Sleep for the settle delays used during bring-up and
// configuration.
func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Device) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

// WithSettings sets the configuration Begin applies.
func WithSettings(s Settings) Option {
	return func(d *Device) {
		d.commit(s)
	}
}

// WithRotation sets the initial sensor to body rotation.
func WithRotation(m Mat3) Option {
	return func(d *Device) {
		d.rotation = m
	}
}

// WithReadObserver registers fn to see the outcome of every Read, including
// the ones driven by a data ready interrupt.
func WithReadObserver(fn func(fresh bool, err error)) Option {
	return func(d *Device) {
		d.observer = fn
	}
}

func newDevice(t Transport, opts []Option) *Device {
	d := &Device{
		bus:      t,
		log:      logrus.NewEntry(logrus.StandardLogger()),
		sleep:    time.Sleep,
		rotation: Identity,
		magSens:  [3]float64{1, 1, 1},
	}
	d.commit(DefaultSettings())
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithFields(logrus.Fields{"device": "mpu9250", "bus": t.Kind.String()})
	return d
}

// NewI2C returns a Device on an I2C bus at addr (0x68 or 0x69). Nothing is
// sent to the chip until Begin.
func NewI2C(bus I2CBus, addr byte, opts ...Option) *Device {
	return newDevice(Transport{Kind: TransportI2C, Addr: addr, i2c: bus}, opts)
}

// NewSPI returns a Device on an SPI bus opened on chip select cs.
func NewSPI(bus SPIBus, cs byte, opts ...Option) *Device {
	return newDevice(Transport{Kind: TransportSPI, ChipSelect: cs, spi: bus}, opts)
}

// Transport returns the bus binding of the device.
func (d *Device) Transport() Transport {
	return d.bus
}

// Ready reports whether Begin has completed successfully.
func (d *Device) Ready() bool {
	return d.ready
}

// WhoAmI returns the identity byte read by the last Begin.
func (d *Device) WhoAmI() byte {
	return d.whoAmI
}

// MagSensitivity returns the per-axis AK8963 sensitivity adjustment read from
// its fuse ROM during Begin.
func (d *Device) MagSensitivity() [3]float64 {
	return d.magSens
}

// Scales returns the scale factors for the current configuration.
func (d *Device) Scales() Scales {
	return d.state.scales
}

// Settings returns the current configuration.
func (d *Device) Settings() Settings {
	return d.state.settings
}

func (d *Device) commit(s Settings) {
	d.state = state{settings: s, scales: newScales(s, d.magSens)}
}

func (d *Device) writeRegister(register, value byte) error {
	return d.bus.writeRegister(register, value)
}

// writeVerify writes value and reads it back.
func (d *Device) writeVerify(register, value byte) error {
	if err := d.bus.writeRegister(register, value); err != nil {
		return err
	}
	got, err := d.bus.readRegister(register)
	if err != nil {
		return err
	}
	if got != value {
		return errors.Wrapf(ErrVerify, "MPU9250 Error: register %X reads %X, wrote %X", register, got, value)
	}
	return nil
}

func (d *Device) readRegister(register byte) (byte, error) {
	return d.bus.readRegister(register)
}

func (d *Device) readRegisters(register byte, count int) ([]byte, error) {
	return d.bus.readRegisters(register, count)
}
