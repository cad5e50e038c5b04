package mpu9250

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// G is standard gravity, used to express accelerations in m/s².
const G = 9.80665

const (
	baseSampleRate  = 1000.0 // Internal sample rate with the DLPF enabled, Hz
	fullScaleLSB    = 32768.0
	magResolution   = 0.6 // µT/LSB in 14-bit output mode
	tempSensitivity = 333.87
	tempOffset      = 21.0
)

// AccelRange is an accelerometer full-scale setting, encoded as written to ACCEL_CONFIG.
type AccelRange byte

const (
	AccelRange2G  AccelRange = 0x00
	AccelRange4G  AccelRange = 0x08
	AccelRange8G  AccelRange = 0x10
	AccelRange16G AccelRange = 0x18
)

// AccelRanges lists every legal AccelRange.
var AccelRanges = []AccelRange{AccelRange2G, AccelRange4G, AccelRange8G, AccelRange16G}

// FullScale returns the range in g, or 0 if r is not a legal setting.
func (r AccelRange) FullScale() float64 {
	switch r {
	case AccelRange2G:
		return 2
	case AccelRange4G:
		return 4
	case AccelRange8G:
		return 8
	case AccelRange16G:
		return 16
	}
	return 0
}

// Valid reports whether r is one of the four chip settings.
func (r AccelRange) Valid() bool { return r.FullScale() != 0 }

func (r AccelRange) String() string {
	if !r.Valid() {
		return fmt.Sprintf("AccelRange(0x%02X)", byte(r))
	}
	return fmt.Sprintf("%gg", r.FullScale())
}

// Scale is the m/s² per LSB for this range.
func (r AccelRange) Scale() float64 {
	return r.FullScale() * G / fullScaleLSB
}

// GyroRange is a gyroscope full-scale setting, encoded as written to GYRO_CONFIG.
type GyroRange byte

const (
	GyroRange250DPS  GyroRange = 0x00
	GyroRange500DPS  GyroRange = 0x08
	GyroRange1000DPS GyroRange = 0x10
	GyroRange2000DPS GyroRange = 0x18
)

// GyroRanges lists every legal GyroRange.
var GyroRanges = []GyroRange{GyroRange250DPS, GyroRange500DPS, GyroRange1000DPS, GyroRange2000DPS}

// FullScale returns the range in °/s, or 0 if r is not a legal setting.
func (r GyroRange) FullScale() float64 {
	switch r {
	case GyroRange250DPS:
		return 250
	case GyroRange500DPS:
		return 500
	case GyroRange1000DPS:
		return 1000
	case GyroRange2000DPS:
		return 2000
	}
	return 0
}

func (r GyroRange) Valid() bool { return r.FullScale() != 0 }

func (r GyroRange) String() string {
	if !r.Valid() {
		return fmt.Sprintf("GyroRange(0x%02X)", byte(r))
	}
	return fmt.Sprintf("%gdps", r.FullScale())
}

// Scale is the rad/s per LSB for this range.
func (r GyroRange) Scale() float64 {
	return r.FullScale() * (math.Pi / 180) / fullScaleLSB
}

// DlpfBandwidth is the digital low pass filter setting shared by CONFIG and ACCEL_CONFIG_2.
type DlpfBandwidth byte

const (
	DlpfBandwidth184Hz DlpfBandwidth = 0x01
	DlpfBandwidth92Hz  DlpfBandwidth = 0x02
	DlpfBandwidth41Hz  DlpfBandwidth = 0x03
	DlpfBandwidth20Hz  DlpfBandwidth = 0x04
	DlpfBandwidth10Hz  DlpfBandwidth = 0x05
	DlpfBandwidth5Hz   DlpfBandwidth = 0x06
)

// DlpfBandwidths lists every legal DlpfBandwidth.
var DlpfBandwidths = []DlpfBandwidth{
	DlpfBandwidth184Hz, DlpfBandwidth92Hz, DlpfBandwidth41Hz,
	DlpfBandwidth20Hz, DlpfBandwidth10Hz, DlpfBandwidth5Hz,
}

// Hz returns the nominal filter bandwidth, or 0 if b is not a legal setting.
func (b DlpfBandwidth) Hz() int {
	switch b {
	case DlpfBandwidth184Hz:
		return 184
	case DlpfBandwidth92Hz:
		return 92
	case DlpfBandwidth41Hz:
		return 41
	case DlpfBandwidth20Hz:
		return 20
	case DlpfBandwidth10Hz:
		return 10
	case DlpfBandwidth5Hz:
		return 5
	}
	return 0
}

func (b DlpfBandwidth) Valid() bool { return b.Hz() != 0 }

func (b DlpfBandwidth) String() string {
	if !b.Valid() {
		return fmt.Sprintf("DlpfBandwidth(0x%02X)", byte(b))
	}
	return fmt.Sprintf("%dhz", b.Hz())
}

// ParseAccelRange accepts "2g", "4g", "8g" or "16g".
func ParseAccelRange(s string) (AccelRange, error) {
	for _, r := range AccelRanges {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %q is not a valid accel range", s)
}

// ParseGyroRange accepts "250dps", "500dps", "1000dps" or "2000dps".
func ParseGyroRange(s string) (GyroRange, error) {
	for _, r := range GyroRanges {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %q is not a valid gyro range", s)
}

// ParseDlpfBandwidth accepts "184hz", "92hz", "41hz", "20hz", "10hz" or "5hz".
func ParseDlpfBandwidth(s string) (DlpfBandwidth, error) {
	for _, b := range DlpfBandwidths {
		if strings.EqualFold(s, b.String()) {
			return b, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %q is not a valid DLPF bandwidth", s)
}

// Settings is the user selectable measurement configuration.
type Settings struct {
	AccelRange        AccelRange
	GyroRange         GyroRange
	Bandwidth         DlpfBandwidth
	SampleRateDivider uint8
}

// DefaultSettings are applied by Begin unless overridden with WithSettings.
func DefaultSettings() Settings {
	return Settings{
		AccelRange:        AccelRange16G,
		GyroRange:         GyroRange2000DPS,
		Bandwidth:         DlpfBandwidth20Hz,
		SampleRateDivider: 0,
	}
}

// Validate checks that every enumerated setting is legal.
func (s Settings) Validate() error {
	if !s.AccelRange.Valid() {
		return errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %s", s.AccelRange)
	}
	if !s.GyroRange.Valid() {
		return errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %s", s.GyroRange)
	}
	if !s.Bandwidth.Valid() {
		return errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: %s", s.Bandwidth)
	}
	return nil
}

// OutputRate returns the data output rate in Hz for a sample rate divider.
func OutputRate(srd uint8) float64 {
	return baseSampleRate / (float64(srd) + 1)
}

// Scales holds the LSB to physical unit factors derived from the live configuration.
type Scales struct {
	Accel float64    // m/s² per LSB
	Gyro  float64    // rad/s per LSB
	Mag   [3]float64 // µT per LSB, per axis
	Temp  float64    // LSB per °C
}

func newScales(s Settings, magSens [3]float64) Scales {
	sc := Scales{
		Accel: s.AccelRange.Scale(),
		Gyro:  s.GyroRange.Scale(),
		Temp:  tempSensitivity,
	}
	for i := range magSens {
		sc.Mag[i] = magSens[i] * magResolution
	}
	return sc
}

// fuseSensitivity converts an AK8963 ASA fuse ROM byte to a sensitivity adjustment factor.
func fuseSensitivity(asa byte) float64 {
	return (float64(asa)-128)*0.5/128 + 1
}
