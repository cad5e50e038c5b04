package mpu9250

import (
	"github.com/pkg/errors"
)

// I2CBus is the part of embd.I2CBus the driver uses.
type I2CBus interface {
	ReadFromReg(addr, reg byte, value []byte) error
	WriteByteToReg(addr, reg, value byte) error
}

// SPIBus is the part of embd.SPIBus the driver uses. The bus must already be
// opened on the chip select the MPU-9250 is wired to.
type SPIBus interface {
	TransferAndReceiveData(dataBuffer []uint8) error
}

// TransportKind selects how registers are framed on the wire.
type TransportKind int

const (
	TransportI2C TransportKind = iota
	TransportSPI
)

func (k TransportKind) String() string {
	if k == TransportSPI {
		return "spi"
	}
	return "i2c"
}

// Transport binds a device to exactly one bus. Addr is the I2C address for
// TransportI2C. ChipSelect records which SPI chip select the bus was opened on
// for TransportSPI; the host bus asserts it, the driver never drives CS.
type Transport struct {
	Kind       TransportKind
	Addr       byte
	ChipSelect byte

	i2c I2CBus
	spi SPIBus
}

func (t *Transport) writeRegister(register, value byte) (err error) {
	switch t.Kind {
	case TransportI2C:
		err = t.i2c.WriteByteToReg(t.Addr, register, value)
	case TransportSPI:
		err = t.spi.TransferAndReceiveData([]uint8{register &^ spiReadFlag, value})
	default:
		err = errors.Errorf("unknown transport %d", t.Kind)
	}
	if err != nil {
		return errors.Wrapf(ErrCommunication, "MPU9250 Error writing %X to %X: %s", value, register, err)
	}
	return nil
}

// readRegisters reads count consecutive registers starting at register.
func (t *Transport) readRegisters(register byte, count int) ([]byte, error) {
	if count <= 0 {
		return nil, errors.Wrapf(ErrCommunication, "MPU9250 Error reading %X: bad length %d", register, count)
	}
	switch t.Kind {
	case TransportI2C:
		buf := make([]byte, count)
		if err := t.i2c.ReadFromReg(t.Addr, register, buf); err != nil {
			return nil, errors.Wrapf(ErrCommunication, "MPU9250 Error reading %X: %s", register, err)
		}
		return buf, nil
	case TransportSPI:
		// First byte clocks out the address; the chip answers from the second.
		buf := make([]uint8, count+1)
		buf[0] = register | spiReadFlag
		if err := t.spi.TransferAndReceiveData(buf); err != nil {
			return nil, errors.Wrapf(ErrCommunication, "MPU9250 Error reading %X: %s", register, err)
		}
		return buf[1:], nil
	}
	return nil, errors.Wrapf(ErrCommunication, "MPU9250 Error: unknown transport %d", t.Kind)
}

func (t *Transport) readRegister(register byte) (byte, error) {
	b, err := t.readRegisters(register, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
