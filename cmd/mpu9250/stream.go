package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/stratux/goflying-mpu9250/mpu9250"
)

// sampleMessage is the JSON pushed to stream clients.
type sampleMessage struct {
	T           time.Time  `json:"t"`
	Accel       [3]float64 `json:"accel"`
	Gyro        [3]float64 `json:"gyro"`
	Mag         [3]float64 `json:"mag"`
	Temp        float64    `json:"temp"`
	MagOverflow bool       `json:"mag_overflow,omitempty"`
}

func newSampleMessage(s mpu9250.Sample) sampleMessage {
	return sampleMessage{
		T:           s.T,
		Accel:       s.Accel,
		Gyro:        s.Gyro,
		Mag:         s.Mag,
		Temp:        s.Temp,
		MagOverflow: s.MagOverflow,
	}
}

// streamer fans samples out to websocket clients. A client that can't keep up
// is dropped.
type streamer struct {
	upgrader websocket.Upgrader
	log      *logrus.Entry

	mu       sync.Mutex
	sockets  []*websocket.Conn
	messages chan sampleMessage
}

func newStreamer(log *logrus.Entry) *streamer {
	s := &streamer{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log,
		messages: make(chan sampleMessage, 64),
	}
	go s.writer()
	return s
}

func (s *streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	s.log.WithField("remote", r.RemoteAddr).Info("stream client connected")
	s.mu.Lock()
	s.sockets = append(s.sockets, conn)
	s.mu.Unlock()

	// Drain control frames so close is noticed.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				conn.Close()
				return
			}
		}
	}()
}

// Send queues a sample without blocking; it is dropped if the queue is full.
func (s *streamer) Send(smp mpu9250.Sample) {
	select {
	case s.messages <- newSampleMessage(smp):
	default:
	}
}

func (s *streamer) clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sockets)
}

func (s *streamer) writer() {
	for msg := range s.messages {
		var p []*websocket.Conn
		s.mu.Lock()
		for _, sock := range s.sockets {
			err := sock.SetWriteDeadline(time.Now().Add(time.Second))
			if err == nil {
				err = sock.WriteJSON(msg)
			}
			if err != nil {
				sock.Close()
				continue
			}
			p = append(p, sock)
		}
		s.sockets = p
		s.mu.Unlock()
	}
}

func serveStream(addr string, s *streamer, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/samples", s)
	log.WithField("addr", addr).Info("streaming samples on /samples")
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Error("stream server stopped")
		}
	}()
}
