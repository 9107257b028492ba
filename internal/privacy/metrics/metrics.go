package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the privacy space.
type Metrics struct {
	TokensIssued        prometheus.Counter
	TokenVerifyFailures prometheus.Counter
	DecryptFailures     prometheus.Counter
	PassphraseRotations prometheus.Counter
}

// New creates and registers all privacy-space metrics.
func New() *Metrics {
	return &Metrics{
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskvault_privacy_tokens_issued_total",
			Help: "Total number of privacy-space access tokens issued",
		}),
		TokenVerifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskvault_privacy_token_verify_failures_total",
			Help: "Total number of privacy-space token verifications that failed",
		}),
		DecryptFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskvault_privacy_decrypt_failures_total",
			Help: "Total number of privacy-space decryption failures",
		}),
		PassphraseRotations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskvault_privacy_passphrase_rotations_total",
			Help: "Total number of privacy passphrase set or rotate operations",
		}),
	}
}
