package mpu9250

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestReadAccelFullScale(t *testing.T) {
	for _, r := range AccelRanges {
		t.Run(r.String(), func(t *testing.T) {
			c := newFakeChip()
			s := DefaultSettings()
			s.AccelRange = r
			d := beginTestDevice(t, c, WithSettings(s))

			c.setBurst([3]int16{32767, -32768, 0}, [3]int16{}, 0)
			fresh, err := d.Read()
			if err != nil || !fresh {
				t.Fatalf("Read = %v, %v", fresh, err)
			}
			accel, _ := d.IMU()
			if want := r.FullScale() * G; !near(accel[0], want, r.Scale()) {
				t.Errorf("x = %g, want about %g", accel[0], want)
			}
			if want := -r.FullScale() * G; accel[1] != want {
				t.Errorf("y = %g, want %g", accel[1], want)
			}
			if accel[2] != 0 {
				t.Errorf("z = %g", accel[2])
			}
		})
	}
}

func TestReadGyroAndTemperature(t *testing.T) {
	c := newFakeChip()
	s := DefaultSettings()
	s.GyroRange = GyroRange250DPS
	d := beginTestDevice(t, c, WithSettings(s))

	c.setBurst([3]int16{}, [3]int16{131, -131, 32767}, 3339)
	if _, err := d.Read(); err != nil {
		t.Fatal(err)
	}
	_, gyro := d.IMU()
	oneDps := math.Pi / 180
	if !near(gyro[0], oneDps, 1e-3*oneDps) || !near(gyro[1], -oneDps, 1e-3*oneDps) {
		t.Errorf("gyro = %v, want about ±%g rad/s", gyro, oneDps)
	}
	if !near(gyro[2], 250*oneDps, GyroRange250DPS.Scale()) {
		t.Errorf("gyro z = %g", gyro[2])
	}
	if got := d.DieTemperature(); !near(got, 3339/333.87+21, 1e-9) {
		t.Errorf("temperature %g", got)
	}
}

func TestReadMagnetometer(t *testing.T) {
	c := newFakeChip()
	c.setASA(128, 0, 255)
	d := beginTestDevice(t, c)

	c.setMag([3]int16{100, 100, -100}, 0)
	c.setBurst([3]int16{}, [3]int16{}, 0)
	if _, err := d.Read(); err != nil {
		t.Fatal(err)
	}
	m := d.Mag()
	want := Vec3{60, 30, -100 * 0.6 * fuseSensitivity(255)}
	for i := range want {
		if !near(m[i], want[i], 1e-9) {
			t.Errorf("mag[%d] = %g, want %g", i, m[i], want[i])
		}
	}
	if d.Sample().MagOverflow {
		t.Error("overflow set without HOFL")
	}
}

func TestReadMagOverflowKeepsPrevious(t *testing.T) {
	c := newFakeChip()
	d := beginTestDevice(t, c)

	c.setMag([3]int16{10, 20, 30}, 0)
	c.setBurst([3]int16{1, 2, 3}, [3]int16{}, 0)
	if _, err := d.Read(); err != nil {
		t.Fatal(err)
	}
	prev := d.Mag()

	c.setMag([3]int16{4000, 4000, 4000}, AKM_OVERFLOW)
	c.setBurst([3]int16{4, 5, 6}, [3]int16{}, 0)
	if _, err := d.Read(); err != nil {
		t.Fatal(err)
	}
	s := d.Sample()
	if !s.MagOverflow {
		t.Error("MagOverflow not set")
	}
	if s.Mag != prev {
		t.Errorf("mag %v, want previous %v", s.Mag, prev)
	}
	if s.Accel[0] != 4*d.Scales().Accel {
		t.Errorf("accel not updated on mag overflow: %v", s.Accel)
	}
}

func TestReadStaleLeavesSample(t *testing.T) {
	c := newFakeChip()
	d := beginTestDevice(t, c)

	c.setMag([3]int16{1, 2, 3}, 0)
	c.setBurst([3]int16{100, 200, 300}, [3]int16{7, 8, 9}, 42)
	if fresh, err := d.Read(); err != nil || !fresh {
		t.Fatalf("Read = %v, %v", fresh, err)
	}
	before := d.Sample()
	if !before.Valid || !d.Fresh() {
		t.Fatal("first read not marked valid and fresh")
	}

	c.setBurst([3]int16{-1, -1, -1}, [3]int16{-1, -1, -1}, -1)
	c.regs[MPUREG_INT_STATUS] = 0
	c.resetOps()
	fresh, err := d.Read()
	if err != nil || fresh {
		t.Fatalf("stale Read = %v, %v", fresh, err)
	}
	if d.Sample() != before {
		t.Errorf("sample changed on stale read: %+v", d.Sample())
	}
	if d.Fresh() {
		t.Error("Fresh after stale read")
	}
	for _, op := range c.ops {
		if op.reg == MPUREG_ACCEL_XOUT_H {
			t.Error("burst read issued without data ready")
		}
	}
}

func TestReadBeforeBegin(t *testing.T) {
	c := newFakeChip()
	d := newTestDevice(c)
	if _, err := d.Read(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Read before Begin: %v", err)
	}
	if d.Sample().Valid {
		t.Error("sample valid before any read")
	}
}

func TestReadBusError(t *testing.T) {
	c := newFakeChip()
	d := beginTestDevice(t, c)
	c.setBurst([3]int16{1, 1, 1}, [3]int16{}, 0)
	if _, err := d.Read(); err != nil {
		t.Fatal(err)
	}
	before := d.Sample()

	c.readErr[MPUREG_ACCEL_XOUT_H] = errBus
	fresh, err := d.Read()
	if fresh || !errors.Is(err, ErrCommunication) {
		t.Errorf("Read = %v, %v", fresh, err)
	}
	if d.Sample() != before {
		t.Error("sample changed on failed read")
	}
}

func TestReadErrorClearsFresh(t *testing.T) {
	for _, reg := range []byte{MPUREG_INT_STATUS, MPUREG_ACCEL_XOUT_H} {
		c := newFakeChip()
		d := beginTestDevice(t, c)
		c.setBurst([3]int16{1, 1, 1}, [3]int16{}, 0)
		if fresh, err := d.Read(); err != nil || !fresh {
			t.Fatalf("Read = %v, %v", fresh, err)
		}

		c.readErr[reg] = errBus
		if _, err := d.Read(); err == nil {
			t.Fatalf("reg %X: Read succeeded", reg)
		}
		if d.Fresh() {
			t.Errorf("reg %X: Fresh after failed read", reg)
		}
	}
}

func TestReadObserver(t *testing.T) {
	c := newFakeChip()
	var fresh, stale, failed int
	observe := func(ok bool, err error) {
		switch {
		case err != nil:
			failed++
		case ok:
			fresh++
		default:
			stale++
		}
	}
	d := beginTestDevice(t, c, WithReadObserver(observe))

	c.setBurst([3]int16{}, [3]int16{}, 0)
	d.Read()
	c.regs[MPUREG_INT_STATUS] = 0
	d.Read()
	c.readErr[MPUREG_INT_STATUS] = errBus
	d.Read()
	if fresh != 1 || stale != 1 || failed != 1 {
		t.Errorf("fresh %d, stale %d, failed %d", fresh, stale, failed)
	}
}

func TestReadIdentityRotationUnchanged(t *testing.T) {
	load := func(c *fakeChip) {
		c.setMag([3]int16{-50, 70, 90}, 0)
		c.setBurst([3]int16{1000, -2000, 3000}, [3]int16{-4, 5, -6}, 0)
	}

	c1 := newFakeChip()
	plain := beginTestDevice(t, c1)
	load(c1)
	c2 := newFakeChip()
	rotated := beginTestDevice(t, c2)
	rotated.SetRotation(Identity)
	load(c2)

	if _, err := plain.Read(); err != nil {
		t.Fatal(err)
	}
	if _, err := rotated.Read(); err != nil {
		t.Fatal(err)
	}
	a, b := plain.Sample(), rotated.Sample()
	if a.Accel != b.Accel || a.Gyro != b.Gyro || a.Mag != b.Mag {
		t.Errorf("identity rotation changed vectors:\n%+v\n%+v", a, b)
	}
}

func TestReadAppliesRotation(t *testing.T) {
	c := newFakeChip()
	// 90° about z: sensor x becomes body y.
	rz := Mat3{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	d := beginTestDevice(t, c, WithRotation(rz))

	c.setMag([3]int16{100, 0, 0}, 0)
	c.setBurst([3]int16{1000, 0, 0}, [3]int16{0, 0, 500}, 0)
	if _, err := d.Read(); err != nil {
		t.Fatal(err)
	}
	s := d.Sample()
	sc := d.Scales()
	if s.Accel != (Vec3{0, 1000 * sc.Accel, 0}) {
		t.Errorf("accel %v", s.Accel)
	}
	if s.Gyro != (Vec3{0, 0, 500 * sc.Gyro}) {
		t.Errorf("gyro %v", s.Gyro)
	}
	if s.Mag != (Vec3{0, 100 * sc.Mag[0], 0}) {
		t.Errorf("mag %v", s.Mag)
	}
}
