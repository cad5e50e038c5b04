package main

import (
	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/stratux/goflying-mpu9250/mpu9250"
)

// openDevice opens the host bus named in cfg and returns an unstarted device
// with cfg's settings and mount applied, plus a function releasing the bus.
func openDevice(cfg Config, log *logrus.Entry, extra ...mpu9250.Option) (*mpu9250.Device, func(), error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, nil, err
	}
	rot, err := cfg.Rotation()
	if err != nil {
		return nil, nil, err
	}
	opts := []mpu9250.Option{
		mpu9250.WithLogger(log),
		mpu9250.WithSettings(settings),
		mpu9250.WithRotation(rot),
	}
	opts = append(opts, extra...)

	switch cfg.Transport {
	case "spi":
		if err := embd.InitSPI(); err != nil {
			return nil, nil, errors.Wrap(err, "initializing SPI")
		}
		bus := embd.NewSPIBus(embd.SPIMode0, cfg.SPI.Channel, cfg.SPI.Speed, 8, 0)
		log.WithFields(logrus.Fields{"channel": cfg.SPI.Channel, "speed": cfg.SPI.Speed}).Debug("SPI bus open")
		return mpu9250.NewSPI(bus, cfg.SPI.Channel, opts...), func() {
			bus.Close()
			embd.CloseSPI()
		}, nil
	default:
		if err := embd.InitI2C(); err != nil {
			return nil, nil, errors.Wrap(err, "initializing I2C")
		}
		bus := embd.NewI2CBus(cfg.I2C.Bus)
		log.WithFields(logrus.Fields{"bus": cfg.I2C.Bus, "addr": cfg.I2C.Addr}).Debug("I2C bus open")
		return mpu9250.NewI2C(bus, cfg.I2C.Addr, opts...), func() {
			bus.Close()
			embd.CloseI2C()
		}, nil
	}
}

// openInterruptPin exports key as an input for the data ready line.
func openInterruptPin(key string) (embd.DigitalPin, func(), error) {
	if err := embd.InitGPIO(); err != nil {
		return nil, nil, errors.Wrap(err, "initializing GPIO")
	}
	pin, err := embd.NewDigitalPin(key)
	if err != nil {
		embd.CloseGPIO()
		return nil, nil, errors.Wrapf(err, "opening pin %s", key)
	}
	if err := pin.SetDirection(embd.In); err != nil {
		pin.Close()
		embd.CloseGPIO()
		return nil, nil, errors.Wrapf(err, "setting pin %s direction", key)
	}
	return pin, func() {
		pin.Close()
		embd.CloseGPIO()
	}, nil
}
