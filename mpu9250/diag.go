package mpu9250

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// RegisterDump is a snapshot of the registers that matter when bring-up goes
// wrong. It can be taken before Begin.
type RegisterDump struct {
	Regs []RegisterValue
}

// RegisterValue is one named register read.
type RegisterValue struct {
	Name  string
	Addr  byte
	Value byte
}

var dumpRegisters = []struct {
	name string
	addr byte
}{
	{"WHO_AM_I", MPUREG_WHOAMI},
	{"PWR_MGMT_1", MPUREG_PWR_MGMT_1},
	{"PWR_MGMT_2", MPUREG_PWR_MGMT_2},
	{"USER_CTRL", MPUREG_USER_CTRL},
	{"INT_PIN_CFG", MPUREG_INT_PIN_CFG},
	{"INT_ENABLE", MPUREG_INT_ENABLE},
	{"SMPLRT_DIV", MPUREG_SMPLRT_DIV},
	{"CONFIG", MPUREG_CONFIG},
	{"GYRO_CONFIG", MPUREG_GYRO_CONFIG},
	{"ACCEL_CONFIG", MPUREG_ACCEL_CONFIG},
	{"ACCEL_CONFIG_2", MPUREG_ACCEL_CONFIG_2},
	{"I2C_MST_CTRL", MPUREG_I2C_MST_CTRL},
	{"I2C_MST_STATUS", MPUREG_I2C_MST_STATUS},
	{"I2C_SLV0_ADDR", MPUREG_I2C_SLV0_ADDR},
	{"I2C_SLV0_REG", MPUREG_I2C_SLV0_REG},
	{"I2C_SLV0_CTRL", MPUREG_I2C_SLV0_CTRL},
}

// DumpRegisters reads the diagnostic register set. INT_STATUS is left out
// because reading it clears the data ready bit.
func (d *Device) DumpRegisters() (RegisterDump, error) {
	var dump RegisterDump
	for _, r := range dumpRegisters {
		v, err := d.readRegister(r.addr)
		if err != nil {
			return dump, errors.Wrapf(err, "MPU9250 Error: couldn't dump %s", r.name)
		}
		dump.Regs = append(dump.Regs, RegisterValue{Name: r.name, Addr: r.addr, Value: v})
	}
	return dump, nil
}

// Get returns the value of the named register and whether it was dumped.
func (rd RegisterDump) Get(name string) (byte, bool) {
	for _, r := range rd.Regs {
		if r.Name == name {
			return r.Value, true
		}
	}
	return 0, false
}

func (rd RegisterDump) String() string {
	var b strings.Builder
	for _, r := range rd.Regs {
		fmt.Fprintf(&b, "%-15s (0x%02X) = 0x%02X", r.Name, r.Addr, r.Value)
		switch r.Addr {
		case MPUREG_USER_CTRL:
			fmt.Fprintf(&b, " (I2C_MST_EN=%v)", r.Value&BIT_I2C_MST_EN != 0)
		case MPUREG_INT_ENABLE:
			fmt.Fprintf(&b, " (RAW_RDY_EN=%v)", r.Value&BIT_RAW_RDY_EN != 0)
		case MPUREG_I2C_MST_STATUS:
			fmt.Fprintf(&b, " [%s]", DecodeMasterStatus(r.Value))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// DecodeMasterStatus spells out the I2C_MST_STATUS bits that are set.
func DecodeMasterStatus(status byte) string {
	var bits []string
	for _, f := range []struct {
		mask byte
		name string
	}{
		{BIT_PASS_THROUGH, "PASS_THROUGH"},
		{BIT_SLV4_DONE, "SLV4_DONE"},
		{BIT_LOST_ARB, "LOST_ARB"},
		{BIT_SLV4_NACK, "SLV4_NACK"},
		{BIT_SLV3_NACK, "SLV3_NACK"},
		{BIT_SLV2_NACK, "SLV2_NACK"},
		{BIT_SLV1_NACK, "SLV1_NACK"},
		{BIT_SLV0_NACK, "SLV0_NACK"},
	} {
		if status&f.mask != 0 {
			bits = append(bits, f.name)
		}
	}
	if len(bits) == 0 {
		return "NONE"
	}
	return strings.Join(bits, " | ")
}
