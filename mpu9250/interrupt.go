package mpu9250

import (
	"github.com/kidoman/embd"
	"github.com/pkg/errors"
)

// InterruptPin is the part of embd.DigitalPin used to watch the INT line.
type InterruptPin interface {
	Watch(edge embd.Edge, handler func(embd.DigitalPin)) error
	StopWatching() error
}

// AttachDataReady watches pin for rising edges and calls Read on this device
// for each one. fn, if not nil, receives every fresh Sample. The handler runs
// on the pin watcher's goroutine, which then owns the device; detach before
// reconfiguring.
func (d *Device) AttachDataReady(pin InterruptPin, fn func(Sample)) error {
	if pin == nil {
		return errors.Wrap(ErrInvalidSetting, "MPU9250 Error: no interrupt pin")
	}
	if d.pin != nil {
		if err := d.DetachDataReady(); err != nil {
			return err
		}
	}
	if err := pin.Watch(embd.EdgeRising, func(embd.DigitalPin) { d.onDataReady(fn) }); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't watch interrupt pin")
	}
	d.pin = pin
	return nil
}

func (d *Device) onDataReady(fn func(Sample)) {
	fresh, err := d.Read()
	if err != nil {
		d.log.WithError(err).Warn("MPU9250: interrupt read failed")
		return
	}
	if fresh && fn != nil {
		fn(d.sample)
	}
}

// DetachDataReady stops watching the interrupt pin. It is a no-op if nothing
// is attached.
func (d *Device) DetachDataReady() error {
	if d.pin == nil {
		return nil
	}
	pin := d.pin
	d.pin = nil
	if err := pin.StopWatching(); err != nil {
		return errors.Wrap(err, "MPU9250 Error: couldn't stop watching interrupt pin")
	}
	return nil
}

// Close detaches the interrupt handler and, if the chip was brought up,
// disables the data ready interrupt. The bus itself is left open.
func (d *Device) Close() error {
	err := d.DetachDataReady()
	if d.ready {
		if derr := d.DisableDataReadyInterrupt(); err == nil {
			err = derr
		}
	}
	d.ready = false
	return err
}
