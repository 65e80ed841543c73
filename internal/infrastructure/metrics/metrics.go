package metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/softwallet/internal/core/domain"
)

const namespace = "softwallet"

// Metrics collects counters about the wallet events it's notified of.
// It uses its own registry so that multiple instances can coexist.
type Metrics struct {
	registry     *prometheus.Registry
	events       *prometheus.CounterVec
	signRequests *prometheus.CounterVec

	warn func(err error, format string, a ...interface{})
}

// NewMetrics returns a new Metrics. The unlocked groups gauge is computed by
// calling countUnlocked at every gathering.
func NewMetrics(countUnlocked func() int) *Metrics {
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("metrics: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Number of wallet events by type.",
	}, []string{"type"})
	signRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_requests_total",
		Help:      "Number of signing requests by chain, mode and result.",
	}, []string{"chain", "mode", "result"})
	unlocked := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unlocked_groups",
		Help:      "Number of currently unlocked wallet groups, primary included.",
	}, func() float64 {
		if countUnlocked == nil {
			return 0
		}
		return float64(countUnlocked())
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(events, signRequests, unlocked)

	return &Metrics{registry, events, signRequests, warnFn}
}

// HandleWalletEvent is meant to be subscribed to the wallet notifications.
func (m *Metrics) HandleWalletEvent(event domain.WalletEvent) {
	m.events.WithLabelValues(event.EventType.String()).Inc()

	if event.EventType != domain.WalletSignRequest {
		return
	}
	mode := "session"
	if event.OneShot {
		mode = "pin"
	}
	result := "success"
	if event.Err != nil {
		result = domain.Classify(event.Err).String()
	}
	m.signRequests.WithLabelValues(event.Chain, mode, result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Dump writes the gathered metrics to a new file in the given directory.
func (m *Metrics) Dump(dir string) (string, error) {
	metricFamilies, err := m.registry.Gather()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, os.ModeDir|0700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, time.Now().UTC().Format("20060102T150405.000000000Z"))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, v := range metricFamilies {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return "", err
		}
	}
	if err := writer.Flush(); err != nil {
		m.warn(err, "failed to flush metrics to %s", path)
		return "", err
	}
	return path, nil
}
