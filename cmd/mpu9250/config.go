package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"math"
	"os"

	"github.com/pkg/errors"
	matrix "github.com/skelterjohn/go.matrix"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stratux/goflying-mpu9250/mpu9250"
)

const (
	DefaultConfig  = "mpu9250.yaml"
	DefaultI2CBus  = 1
	DefaultI2CAddr = 0x68
)

type I2COpt struct {
	Bus  byte `yaml:"bus"`
	Addr byte `yaml:"addr"`
}

type SPIOpt struct {
	Channel byte `yaml:"channel"`
	Speed   int  `yaml:"speed"`
}

// MountOpt describes how the board is mounted, either as roll/pitch/yaw in
// degrees or as an explicit row-major 3x3 matrix. The matrix wins if both are set.
type MountOpt struct {
	Roll   float64     `yaml:"roll"`
	Pitch  float64     `yaml:"pitch"`
	Yaw    float64     `yaml:"yaw"`
	Matrix [][]float64 `yaml:"matrix,omitempty"`
}

type SensorOpt struct {
	AccelRange        string   `yaml:"accel_range"`
	GyroRange         string   `yaml:"gyro_range"`
	Bandwidth         string   `yaml:"bandwidth"`
	SampleRateDivider uint8    `yaml:"sample_rate_divider"`
	Mount             MountOpt `yaml:"mount"`
}

type OutputOpt struct {
	Print   bool   `yaml:"print"`
	Metrics string `yaml:"metrics"`
	Stream  string `yaml:"stream"`
}

// Config is the YAML file read by the read and dump commands.
type Config struct {
	Transport    string    `yaml:"transport"`
	I2C          I2COpt    `yaml:"i2c"`
	SPI          SPIOpt    `yaml:"spi"`
	Sensor       SensorOpt `yaml:"sensor"`
	InterruptPin string    `yaml:"interrupt_pin"`
	Output       OutputOpt `yaml:"output"`
	LogLevel     string    `yaml:"log_level"`
}

func NewConfig() Config {
	d := mpu9250.DefaultSettings()
	return Config{
		Transport: "i2c",
		I2C:       I2COpt{Bus: DefaultI2CBus, Addr: DefaultI2CAddr},
		SPI:       SPIOpt{Channel: 0, Speed: mpu9250.SPIClock},
		Sensor: SensorOpt{
			AccelRange:        d.AccelRange.String(),
			GyroRange:         d.GyroRange.String(),
			Bandwidth:         d.Bandwidth.String(),
			SampleRateDivider: 19,
		},
		Output:   OutputOpt{Print: true},
		LogLevel: "info",
	}
}

// LoadConfig reads path over the defaults. A missing path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing %s", path)
	}
	return cfg, nil
}

// Settings converts the sensor section into driver settings.
func (c *Config) Settings() (mpu9250.Settings, error) {
	var s mpu9250.Settings
	var err error
	if s.AccelRange, err = mpu9250.ParseAccelRange(c.Sensor.AccelRange); err != nil {
		return s, err
	}
	if s.GyroRange, err = mpu9250.ParseGyroRange(c.Sensor.GyroRange); err != nil {
		return s, err
	}
	if s.Bandwidth, err = mpu9250.ParseDlpfBandwidth(c.Sensor.Bandwidth); err != nil {
		return s, err
	}
	s.SampleRateDivider = c.Sensor.SampleRateDivider
	return s, s.Validate()
}

// Rotation returns the sensor to body rotation for the mount section.
func (c *Config) Rotation() (mpu9250.Mat3, error) {
	m := c.Sensor.Mount
	if len(m.Matrix) == 0 {
		const deg = math.Pi / 180
		return mpu9250.RotationFromEuler(m.Roll*deg, m.Pitch*deg, m.Yaw*deg), nil
	}
	var flat []float64
	for _, row := range m.Matrix {
		if len(row) != 3 {
			return mpu9250.Identity, errors.Wrapf(mpu9250.ErrInvalidSetting, "mount matrix row has %d entries", len(row))
		}
		flat = append(flat, row...)
	}
	r, err := mpu9250.Mat3FromDense(matrix.MakeDenseMatrix(flat, len(m.Matrix), 3))
	if err != nil {
		return mpu9250.Identity, err
	}
	if !mpu9250.IsRotation(r, 1e-6) {
		return mpu9250.Identity, errors.Wrap(mpu9250.ErrInvalidSetting, "mount matrix is not a rotation")
	}
	return r, nil
}

// applyFlags overrides config values with flags given on the command line.
func (c *Config) applyFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	var err error
	if f.Changed("transport") {
		c.Transport, err = f.GetString("transport")
	}
	if err == nil && f.Changed("bus") {
		c.I2C.Bus, err = f.GetUint8("bus")
	}
	if err == nil && f.Changed("addr") {
		c.I2C.Addr, err = f.GetUint8("addr")
	}
	if err == nil && f.Changed("channel") {
		c.SPI.Channel, err = f.GetUint8("channel")
	}
	if err == nil && f.Changed("srd") {
		c.Sensor.SampleRateDivider, err = f.GetUint8("srd")
	}
	if err == nil && f.Changed("pin") {
		c.InterruptPin, err = f.GetString("pin")
	}
	if err == nil && f.Changed("metrics") {
		c.Output.Metrics, err = f.GetString("metrics")
	}
	if err == nil && f.Changed("stream") {
		c.Output.Stream, err = f.GetString("stream")
	}
	if err == nil && f.Changed("loglevel") {
		c.LogLevel, err = f.GetString("loglevel")
	}
	if err != nil {
		return err
	}
	if c.Transport != "i2c" && c.Transport != "spi" {
		return errors.Errorf("unknown transport %q, want i2c or spi", c.Transport)
	}
	return nil
}

func configFromCmd(cmd *cobra.Command) (Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.applyFlags(cmd)
}

func deviceFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file")
	cmd.Flags().String("transport", "i2c", "bus the chip is on, i2c or spi")
	cmd.Flags().Uint8("bus", DefaultI2CBus, "I2C bus number")
	cmd.Flags().Uint8("addr", DefaultI2CAddr, "I2C address")
	cmd.Flags().Uint8("channel", 0, "SPI chip select")
	cmd.Flags().String("loglevel", "info", "log level")
}

func InitCfg(cmd *cobra.Command, args []string) error {
	buf, err := yaml.Marshal(NewConfig())
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetBool("print"); p {
		fmt.Print(string(buf))
		return nil
	}
	out, _ := cmd.Flags().GetString("output")
	if _, err := os.Stat(out); err == nil {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.Errorf("%s exists, use -y to overwrite", out)
		}
	}
	if err := ioutil.WriteFile(out, buf, 0644); err != nil {
		return errors.Wrap(err, "writing config")
	}
	fmt.Println("configuration written to", out)
	return nil
}
