package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// Verification result labels.
const (
	ResultAccepted         = "accepted"
	ResultInvalidSignature = "invalid_signature"
	ResultMalformed        = "malformed"
	ResultNonceReused      = "nonce_reused"
	ResultError            = "error"
)

// OracleMetrics holds all Prometheus metrics for the Oracle module
type OracleMetrics struct {
	// Verification metrics
	Verifications  *prometheus.CounterVec
	NoncesConsumed prometheus.Counter
	BatchSize      prometheus.Histogram

	// Admin metrics
	KeyRotations prometheus.Counter
}

var (
	oracleMetricsOnce sync.Once
	oracleMetrics     *OracleMetrics
)

// NewOracleMetrics creates and registers Oracle metrics (singleton pattern)
func NewOracleMetrics() *OracleMetrics {
	oracleMetricsOnce.Do(func() {
		oracleMetrics = &OracleMetrics{
			Verifications: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "oracle",
					Name:      "verifications_total",
					Help:      "Signed price inputs checked, by operation and result",
				},
				[]string{"operation", "result"},
			),
			NoncesConsumed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "oracle",
					Name:      "nonces_consumed_total",
					Help:      "Nonces inserted into the used nonce set",
				},
			),
			BatchSize: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "oracle",
					Name:      "batch_size",
					Help:      "Number of sub-messages in verified batches",
					Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250},
				},
			),
			KeyRotations: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "oracle",
					Name:      "key_rotations_total",
					Help:      "Authorized public key rotations",
				},
			),
		}
	})
	return oracleMetrics
}

// resultLabel maps a check error onto its verification result label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultAccepted
	case types.ErrInvalidSignature.Is(err):
		return ResultInvalidSignature
	case types.ErrMalformedMessage.Is(err):
		return ResultMalformed
	case types.ErrNonceReused.Is(err):
		return ResultNonceReused
	default:
		return ResultError
	}
}
