package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/stratux/goflying-mpu9250/mpu9250"
)

var axes = [3]string{"x", "y", "z"}

// Initialize Prometheus metrics.
var (
	readsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpu9250_reads_total",
			Help: "Read attempts by result.",
		},
		[]string{"result"},
	)

	magOverflows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mpu9250_mag_overflows_total",
		Help: "Samples where the magnetometer reported overflow.",
	})

	dieTemp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mpu9250_die_temperature_celsius",
		Help: "Die temperature of the last sample.",
	})

	vectors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mpu9250_sample",
			Help: "Last sample, m/s² for accel, rad/s for gyro, µT for mag.",
		},
		[]string{"sensor", "axis"},
	)
)

func registerMetrics() {
	prometheus.MustRegister(readsTotal)
	prometheus.MustRegister(magOverflows)
	prometheus.MustRegister(dieTemp)
	prometheus.MustRegister(vectors)
}

func serveMetrics(addr string, log *logrus.Entry) {
	registerMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.WithField("addr", addr).Info("serving metrics")
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
}

func countRead(fresh bool, err error) {
	switch {
	case err != nil:
		readsTotal.With(prometheus.Labels{"result": "error"}).Inc()
	case fresh:
		readsTotal.With(prometheus.Labels{"result": "fresh"}).Inc()
	default:
		readsTotal.With(prometheus.Labels{"result": "stale"}).Inc()
	}
}

func observeSample(s mpu9250.Sample) {
	for i, a := range axes {
		vectors.With(prometheus.Labels{"sensor": "accel", "axis": a}).Set(s.Accel[i])
		vectors.With(prometheus.Labels{"sensor": "gyro", "axis": a}).Set(s.Gyro[i])
		vectors.With(prometheus.Labels{"sensor": "mag", "axis": a}).Set(s.Mag[i])
	}
	dieTemp.Set(s.Temp)
	if s.MagOverflow {
		magOverflows.Inc()
	}
}
