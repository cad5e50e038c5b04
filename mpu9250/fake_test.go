package mpu9250

import (
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var errBus = errors.New("bus error")

type busOp struct {
	write bool
	reg   byte
	val   byte
}

// fakeChip is an MPU-9250 register file with an AK8963 hanging off its I2C
// master. It serves both the I2C and SPI bus interfaces.
type fakeChip struct {
	addr byte
	regs [256]byte
	ak   [32]byte

	ops       []busOp
	akWrites  []busOp
	spiFrames [][]byte

	readErr  map[byte]error
	writeErr map[byte]error
	stuck    map[byte]byte // forced read back values
	failFuse bool
}

func newFakeChip() *fakeChip {
	c := &fakeChip{
		addr:     0x68,
		readErr:  map[byte]error{},
		writeErr: map[byte]error{},
		stuck:    map[byte]byte{},
	}
	c.regs[MPUREG_WHOAMI] = WHOAMI_MPU9250
	c.regs[MPUREG_PWR_MGMT_1] = 0x01
	c.ak[AK8963_WIA] = WHOAMI_AK8963
	c.setASA(128, 128, 128)
	return c
}

func (c *fakeChip) setASA(x, y, z byte) {
	c.ak[AK8963_ASAX], c.ak[AK8963_ASAX+1], c.ak[AK8963_ASAX+2] = x, y, z
}

func (c *fakeChip) write(reg, val byte) error {
	c.ops = append(c.ops, busOp{write: true, reg: reg, val: val})
	if err := c.writeErr[reg]; err != nil {
		return err
	}
	if reg == MPUREG_PWR_MGMT_1 && val&BIT_H_RESET != 0 {
		who := c.regs[MPUREG_WHOAMI]
		c.regs = [256]byte{}
		c.regs[MPUREG_WHOAMI] = who
		c.regs[MPUREG_PWR_MGMT_1] = 0x01
		return nil
	}
	c.regs[reg] = val
	if reg == MPUREG_I2C_SLV0_CTRL {
		c.relay(true)
	}
	return nil
}

// relay runs one slave 0 transaction. Reads land in EXT_SENS_DATA.
func (c *fakeChip) relay(allowWrite bool) {
	ctrl := c.regs[MPUREG_I2C_SLV0_CTRL]
	addr := c.regs[MPUREG_I2C_SLV0_ADDR]
	if ctrl&BIT_SLAVE_EN == 0 || c.regs[MPUREG_USER_CTRL]&BIT_I2C_MST_EN == 0 {
		return
	}
	if addr&^BIT_I2C_READ != AK8963_I2C_ADDR {
		return
	}
	reg := c.regs[MPUREG_I2C_SLV0_REG]
	if addr&BIT_I2C_READ == 0 {
		if allowWrite {
			c.akWrite(reg, c.regs[MPUREG_I2C_SLV0_DO])
		}
		return
	}
	n := int(ctrl & 0x0F)
	for i := 0; i < n; i++ {
		c.regs[int(MPUREG_EXT_SENS_DATA_00)+i] = c.ak[(int(reg)+i)%len(c.ak)]
	}
}

func (c *fakeChip) akWrite(reg, val byte) {
	c.akWrites = append(c.akWrites, busOp{write: true, reg: reg, val: val})
	if reg == AK8963_CNTL2 {
		if val&AKM_SOFT_RESET != 0 {
			c.ak[AK8963_CNTL1] = AKM_POWER_DOWN
		}
		return
	}
	c.ak[reg] = val
}

func (c *fakeChip) read(reg byte, buf []byte) error {
	c.ops = append(c.ops, busOp{reg: reg})
	if err := c.readErr[reg]; err != nil {
		return err
	}
	if c.failFuse && reg == MPUREG_EXT_SENS_DATA_00 && c.regs[MPUREG_I2C_SLV0_REG] == AK8963_ASAX {
		return errBus
	}
	if reg == MPUREG_ACCEL_XOUT_H {
		c.relay(false)
	}
	for i := range buf {
		r := byte(int(reg) + i)
		if v, ok := c.stuck[r]; ok {
			buf[i] = v
			continue
		}
		buf[i] = c.regs[r]
	}
	return nil
}

func (c *fakeChip) ReadFromReg(addr, reg byte, value []byte) error {
	if addr != c.addr {
		return errBus
	}
	return c.read(reg, value)
}

func (c *fakeChip) WriteByteToReg(addr, reg, value byte) error {
	if addr != c.addr {
		return errBus
	}
	return c.write(reg, value)
}

func (c *fakeChip) TransferAndReceiveData(buf []uint8) error {
	c.spiFrames = append(c.spiFrames, append([]byte(nil), buf...))
	if len(buf) < 2 {
		return errBus
	}
	if buf[0]&spiReadFlag == 0 {
		if len(buf) != 2 {
			return errBus
		}
		return c.write(buf[0], buf[1])
	}
	reg := buf[0] &^ spiReadFlag
	buf[0] = 0xFF
	return c.read(reg, buf[1:])
}

// setBurst loads raw accel, temperature and gyro words and raises data ready.
func (c *fakeChip) setBurst(accel, gyro [3]int16, temp int16) {
	for i := 0; i < 3; i++ {
		binary.BigEndian.PutUint16(c.regs[int(MPUREG_ACCEL_XOUT_H)+2*i:], uint16(accel[i]))
		binary.BigEndian.PutUint16(c.regs[int(MPUREG_GYRO_XOUT_H)+2*i:], uint16(gyro[i]))
	}
	binary.BigEndian.PutUint16(c.regs[MPUREG_TEMP_OUT_H:], uint16(temp))
	c.regs[MPUREG_INT_STATUS] = BIT_RAW_DATA_RDY
}

// setMag loads the AK8963 data registers.
func (c *fakeChip) setMag(m [3]int16, st2 byte) {
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint16(c.ak[int(AK8963_HXL)+2*i:], uint16(m[i]))
	}
	c.ak[AK8963_ST2] = st2
}

func (c *fakeChip) resetOps() {
	c.ops = nil
	c.akWrites = nil
	c.spiFrames = nil
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestDevice(c *fakeChip, opts ...Option) *Device {
	base := []Option{WithSleep(func(time.Duration) {}), WithLogger(quietLogger())}
	return NewI2C(c, c.addr, append(base, opts...)...)
}

func beginTestDevice(t *testing.T, c *fakeChip, opts ...Option) *Device {
	t.Helper()
	d := newTestDevice(c, opts...)
	if err := d.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return d
}

func near(a, b, tol float64) bool {
	d := a - b
	return d <= tol && d >= -tol
}
