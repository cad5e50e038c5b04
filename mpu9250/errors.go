package mpu9250

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrCommunication is returned when a bus transfer fails or comes back short.
	ErrCommunication = errors.New("mpu9250: communication failure")
	// ErrVerify is returned when a configuration register does not read back as written.
	ErrVerify = errors.New("mpu9250: register verification failed")
	// ErrIdentity is returned when WHO_AM_I matches neither MPU-9250 nor MPU-9255.
	ErrIdentity = errors.New("mpu9250: unexpected device identity")
	// ErrCalibration is returned when the AK8963 cannot be brought up or its fuse ROM read.
	ErrCalibration = errors.New("mpu9250: magnetometer calibration failed")
	// ErrNotReady is returned by Read until Begin has succeeded.
	ErrNotReady = errors.New("mpu9250: device not initialized")
	// ErrInvalidSetting is returned for a range, bandwidth or rotation the chip can't take.
	ErrInvalidSetting = errors.New("mpu9250: invalid setting")
)

// Stage is a step of the Begin sequence.
type Stage int

const (
	StageReset Stage = iota
	StageClockSelect
	StageIdentityCheck
	StageRangeConfig
	StageFilterConfig
	StageSampleRateConfig
	StageAuxInit
	StageInterruptReady
)

var stageNames = [...]string{
	StageReset:            "reset",
	StageClockSelect:      "clock select",
	StageIdentityCheck:    "identity check",
	StageRangeConfig:      "range config",
	StageFilterConfig:     "filter config",
	StageSampleRateConfig: "sample rate config",
	StageAuxInit:          "magnetometer init",
	StageInterruptReady:   "interrupt config",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// InitError reports which Begin stage failed.
type InitError struct {
	Stage Stage
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("MPU9250 Error: initialization failed at %s: %s", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Cause lets errors.Cause from github.com/pkg/errors reach the underlying error.
func (e *InitError) Cause() error { return e.Err }
