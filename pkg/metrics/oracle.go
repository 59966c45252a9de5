// Copyright 2025 Certen Protocol
//
// Package metrics exposes Prometheus instrumentation for the oracle host.
// The validator's go.mod has always carried github.com/prometheus/client_golang
// as a direct dependency; this package is the first thing in the tree that
// actually registers a collector with it.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/certen/tls-oracle/pkg/oracle"
)

// Oracle bundles the counters and histogram the host records around every
// submission and verification.
type Oracle struct {
	SubmissionsAccepted prometheus.Counter
	SubmissionsRejected *prometheus.CounterVec
	VerifyDuration      prometheus.Histogram
	NotaryCount         prometheus.Gauge
	AttestationCount    prometheus.Gauge
}

// NewOracle constructs and registers the oracle metric family against reg.
// Pass prometheus.DefaultRegisterer for the process-wide default registry.
func NewOracle(reg prometheus.Registerer) *Oracle {
	m := &Oracle{
		SubmissionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "certen_oracle",
			Name:      "submissions_accepted_total",
			Help:      "Total number of attestations accepted.",
		}),
		SubmissionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certen_oracle",
			Name:      "submissions_rejected_total",
			Help:      "Total number of submissions rejected, by reason.",
		}, []string{"reason"}),
		VerifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "certen_oracle",
			Name:      "groth16_verify_seconds",
			Help:      "Wall-clock time spent in the Groth16 pairing check.",
			Buckets:   prometheus.DefBuckets,
		}),
		NotaryCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "certen_oracle",
			Name:      "notaries",
			Help:      "Current number of registered notaries.",
		}),
		AttestationCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "certen_oracle",
			Name:      "attestations",
			Help:      "Current number of accepted attestations.",
		}),
	}
	reg.MustRegister(m.SubmissionsAccepted, m.SubmissionsRejected, m.VerifyDuration, m.NotaryCount, m.AttestationCount)
	return m
}

// RejectReason maps a Submit error to a low-cardinality Prometheus label,
// matching the error table in the oracle package's §7 design notes.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, oracle.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, oracle.ErrResponseTooLarge), errors.Is(err, oracle.ErrSourceURLTooLarge):
		return "size"
	case errors.Is(err, oracle.ErrFutureTimestamp):
		return "future_timestamp"
	case errors.Is(err, oracle.ErrStaleTimestamp):
		return "stale_timestamp"
	case errors.Is(err, oracle.ErrTimestampMismatch):
		return "timestamp_mismatch"
	case errors.Is(err, oracle.ErrUnknownNotary):
		return "unknown_notary"
	case errors.Is(err, oracle.ErrNotaryMissingRawKey):
		return "notary_missing_raw_key"
	case errors.Is(err, oracle.ErrReplay):
		return "replay"
	case errors.Is(err, oracle.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, oracle.ErrSignatureKeyMismatch):
		return "signature_key_mismatch"
	case errors.Is(err, oracle.ErrInputLengthMismatch):
		return "input_length_mismatch"
	case errors.Is(err, oracle.ErrInvalidProof):
		return "invalid_proof"
	case errors.Is(err, oracle.ErrHostPrimitive):
		return "host_primitive"
	default:
		return "other"
	}
}
