package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wallet_payload"

// Decrypt paths
const (
	PathNative = "native"
	PathLegacy = "legacy"
)

// Outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors of the payload core. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	decrypts    *prometheus.CounterVec
	divergences prometheus.Counter
	upgrades    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decrypts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decrypt_total",
			Help:      "Wallet payload decryptions by path and outcome.",
		}, []string{"path", "outcome"}),
		divergences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decrypt_divergence_total",
			Help:      "Native decryption failures recovered by the legacy path.",
		}),
		upgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upgrade_total",
			Help:      "Wallet upgrade workflows by version and outcome.",
		}, []string{"version", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.decrypts, m.divergences, m.upgrades)
	}
	return m
}

// ObserveDecrypt counts one decryption attempt
func (m *Metrics) ObserveDecrypt(path string, err error) {
	if m == nil {
		return
	}
	m.decrypts.WithLabelValues(path, outcome(err)).Inc()
}

// ObserveDivergence counts a native failure recovered by the legacy path
func (m *Metrics) ObserveDivergence() {
	if m == nil {
		return
	}
	m.divergences.Inc()
}

// ObserveUpgrade counts one upgrade workflow run
func (m *Metrics) ObserveUpgrade(version string, err error) {
	if m == nil {
		return
	}
	m.upgrades.WithLabelValues(version, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
