package mpu9250

import (
	"testing"

	"github.com/pkg/errors"
)

func TestMagModeFor(t *testing.T) {
	tests := []struct {
		srd  uint8
		want byte
	}{
		{0, AKM_CONT_MEAS_100HZ},
		{9, AKM_CONT_MEAS_100HZ},
		{10, AKM_CONT_MEAS_8HZ},
		{19, AKM_CONT_MEAS_8HZ},
		{255, AKM_CONT_MEAS_8HZ},
	}
	for _, tt := range tests {
		if got := magModeFor(tt.srd); got != tt.want {
			t.Errorf("magModeFor(%d) = %X, want %X", tt.srd, got, tt.want)
		}
	}
}

func TestAuxRegisterRelay(t *testing.T) {
	c := newFakeChip()
	d := newTestDevice(c)
	if err := d.configureRelay(); err != nil {
		t.Fatal(err)
	}

	if err := d.writeAuxRegister(AK8963_CNTL1, AKM_FUSE_ROM); err != nil {
		t.Fatal(err)
	}
	if c.ak[AK8963_CNTL1] != AKM_FUSE_ROM {
		t.Errorf("CNTL1 = %X", c.ak[AK8963_CNTL1])
	}
	if c.regs[MPUREG_I2C_SLV0_ADDR] != AK8963_I2C_ADDR || c.regs[MPUREG_I2C_SLV0_CTRL] != BIT_SLAVE_EN|1 {
		t.Errorf("slave 0 write setup ADDR=%X CTRL=%X", c.regs[MPUREG_I2C_SLV0_ADDR], c.regs[MPUREG_I2C_SLV0_CTRL])
	}

	c.setASA(0x10, 0x20, 0x30)
	asa, err := d.readAuxRegisters(AK8963_ASAX, 3)
	if err != nil {
		t.Fatal(err)
	}
	if asa[0] != 0x10 || asa[1] != 0x20 || asa[2] != 0x30 {
		t.Errorf("ASA % X", asa)
	}
}

func TestAuxRegisterLength(t *testing.T) {
	d := newTestDevice(newFakeChip())
	for _, n := range []int{0, 16} {
		if _, err := d.readAuxRegisters(AK8963_HXL, n); !errors.Is(err, ErrInvalidSetting) {
			t.Errorf("length %d: %v", n, err)
		}
	}
}

func TestReadFuseSensitivity(t *testing.T) {
	c := newFakeChip()
	c.setASA(128, 0, 255)
	d := newTestDevice(c)
	if err := d.configureRelay(); err != nil {
		t.Fatal(err)
	}
	sens, err := d.readFuseSensitivity()
	if err != nil {
		t.Fatal(err)
	}
	if sens != [3]float64{1, 0.5, fuseSensitivity(255)} {
		t.Errorf("sensitivity %v", sens)
	}
	if c.ak[AK8963_CNTL1] != AKM_POWER_DOWN {
		t.Errorf("AK8963 left in mode %X", c.ak[AK8963_CNTL1])
	}
	modes := []byte{}
	for _, w := range c.akWrites {
		if w.reg == AK8963_CNTL1 {
			modes = append(modes, w.val)
		}
	}
	if len(modes) != 3 || modes[1] != AKM_FUSE_ROM {
		t.Errorf("CNTL1 writes % X", modes)
	}
}

func TestMagnetometerSoftReset(t *testing.T) {
	c := newFakeChip()
	beginTestDevice(t, c)
	if len(c.akWrites) == 0 || c.akWrites[0].reg != AK8963_CNTL2 || c.akWrites[0].val != AKM_SOFT_RESET {
		t.Errorf("first AK8963 write %+v, want soft reset", c.akWrites)
	}
}
