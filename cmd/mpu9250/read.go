package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stratux/goflying-mpu9250/mpu9250"
)

func ReadCmdFlags(cmd *cobra.Command) {
	deviceFlags(cmd)
	cmd.Flags().Uint8("srd", 19, "sample rate divider, output rate is 1000/(srd+1) Hz")
	cmd.Flags().String("pin", "", "GPIO wired to INT; poll the status register if empty")
	cmd.Flags().String("metrics", "", "serve Prometheus metrics on this address")
	cmd.Flags().String("stream", "", "serve a websocket sample stream on this address")
	cmd.Flags().Bool("quiet", false, "don't log samples")
}

func ReadCmdRunE(cmd *cobra.Command, args []string) error {
	cfg, err := configFromCmd(cmd)
	if err != nil {
		return err
	}
	if q, _ := cmd.Flags().GetBool("quiet"); q {
		cfg.Output.Print = false
	}
	log := GetLogger(cfg.LogLevel)

	log.WithFields(logrus.Fields{
		"transport": cfg.Transport,
		"accel":     cfg.Sensor.AccelRange,
		"gyro":      cfg.Sensor.GyroRange,
		"dlpf":      cfg.Sensor.Bandwidth,
		"srd":       cfg.Sensor.SampleRateDivider,
	}).Info("initializing MPU9250")

	metrics := cfg.Output.Metrics != ""
	var extra []mpu9250.Option
	if metrics {
		extra = append(extra, mpu9250.WithReadObserver(countRead))
	}
	mpu, closeBus, err := openDevice(cfg, log, extra...)
	if err != nil {
		return err
	}
	defer closeBus()
	if err := mpu.Begin(); err != nil {
		return err
	}
	defer mpu.Close()
	log.WithField("rate_hz", mpu.OutputRate()).Info("MPU9250 initialized successfully")

	var stream *streamer
	if cfg.Output.Stream != "" {
		stream = newStreamer(log)
		serveStream(cfg.Output.Stream, stream, log)
	}
	if metrics {
		serveMetrics(cfg.Output.Metrics, log)
	}

	var readCount int
	publish := func(s mpu9250.Sample) {
		readCount++
		if metrics {
			observeSample(s)
		}
		if stream != nil {
			stream.Send(s)
		}
		if cfg.Output.Print && readCount%logEvery(mpu.OutputRate()) == 0 {
			logSample(log, readCount, s)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	if cfg.InterruptPin != "" {
		pin, closePin, err := openInterruptPin(cfg.InterruptPin)
		if err != nil {
			return err
		}
		defer closePin()
		if err := mpu.EnableDataReadyInterrupt(); err != nil {
			return err
		}
		if err := mpu.AttachDataReady(pin, publish); err != nil {
			return err
		}
		log.WithField("pin", cfg.InterruptPin).Info("reading on data ready interrupt, Ctrl+C to exit")
		sig := <-interrupt
		log.WithField("signal", sig).Info("stopping")
		return mpu.DetachDataReady()
	}

	log.Info("polling data ready, Ctrl+C to exit")
	ticker := time.NewTicker(pollInterval(mpu.OutputRate()))
	defer ticker.Stop()
	for {
		select {
		case sig := <-interrupt:
			log.WithField("signal", sig).Info("stopping")
			return nil
		case <-ticker.C:
			fresh, err := mpu.Read()
			if err != nil {
				log.WithError(err).Warn("ERROR reading sensor")
				continue
			}
			if fresh {
				publish(mpu.Sample())
			}
		}
	}
}

// pollInterval polls at twice the output rate so no sample is missed.
func pollInterval(rate float64) time.Duration {
	return time.Duration(float64(time.Second) / (2 * rate))
}

// logEvery thins sample logging to about once a second.
func logEvery(rate float64) int {
	if rate < 1 {
		return 1
	}
	return int(rate)
}

func logSample(log *logrus.Entry, n int, s mpu9250.Sample) {
	log.Infof("[%04d] Gyro: X=%7.3f Y=%7.3f Z=%7.3f rad/s | Accel: X=%7.3f Y=%7.3f Z=%7.3f m/s² | %.1f°C",
		n, s.Gyro[0], s.Gyro[1], s.Gyro[2], s.Accel[0], s.Accel[1], s.Accel[2], s.Temp)
	log.Infof("[%04d] Mag: X=%7.2f Y=%7.2f Z=%7.2f µT", n, s.Mag[0], s.Mag[1], s.Mag[2])
	if s.MagOverflow {
		log.Warnf("[%04d] magnetometer overflow", n)
	} else if s.Mag == (mpu9250.Vec3{}) {
		log.Warnf("[%04d] magnetometer returns all zeros", n)
	}
}
