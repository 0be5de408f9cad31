package vstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordPublish is called after each publish. bytes is the stored blob
	// size (0 on failure), err is nil if successful.
	RecordPublish(bytes int64, duration time.Duration, err error)

	// RecordExists is called after each existence check.
	RecordExists(found bool, duration time.Duration, err error)

	// RecordVerify is called after each digest verification.
	RecordVerify(duration time.Duration, err error)

	// RecordRemove is called after each version removal.
	RecordRemove(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPublish(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordExists(bool, time.Duration, error)   {}
func (NoopMetricsCollector) RecordVerify(time.Duration, error)         {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	PublishCount      atomic.Int64
	PublishErrors     atomic.Int64
	PublishBytes      atomic.Int64
	PublishTotalNanos atomic.Int64
	ExistsCount       atomic.Int64
	ExistsHits        atomic.Int64
	ExistsErrors      atomic.Int64
	VerifyCount       atomic.Int64
	VerifyErrors      atomic.Int64
	VerifyTotalNanos  atomic.Int64
	RemoveCount       atomic.Int64
	RemoveErrors      atomic.Int64
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(bytes int64, duration time.Duration, err error) {
	b.PublishCount.Add(1)
	b.PublishTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PublishErrors.Add(1)
		return
	}
	b.PublishBytes.Add(bytes)
}

// RecordExists implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExists(found bool, _ time.Duration, err error) {
	b.ExistsCount.Add(1)
	if err != nil {
		b.ExistsErrors.Add(1)
	}
	if found {
		b.ExistsHits.Add(1)
	}
}

// RecordVerify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVerify(duration time.Duration, err error) {
	b.VerifyCount.Add(1)
	b.VerifyTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.VerifyErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(_ time.Duration, err error) {
	b.RemoveCount.Add(1)
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PublishCount:    b.PublishCount.Load(),
		PublishErrors:   b.PublishErrors.Load(),
		PublishBytes:    b.PublishBytes.Load(),
		PublishAvgNanos: avg(b.PublishTotalNanos.Load(), b.PublishCount.Load()),
		ExistsCount:     b.ExistsCount.Load(),
		ExistsHits:      b.ExistsHits.Load(),
		ExistsErrors:    b.ExistsErrors.Load(),
		VerifyCount:     b.VerifyCount.Load(),
		VerifyErrors:    b.VerifyErrors.Load(),
		VerifyAvgNanos:  avg(b.VerifyTotalNanos.Load(), b.VerifyCount.Load()),
		RemoveCount:     b.RemoveCount.Load(),
		RemoveErrors:    b.RemoveErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PublishCount    int64
	PublishErrors   int64
	PublishBytes    int64
	PublishAvgNanos int64
	ExistsCount     int64
	ExistsHits      int64
	ExistsErrors    int64
	VerifyCount     int64
	VerifyErrors    int64
	VerifyAvgNanos  int64
	RemoveCount     int64
	RemoveErrors    int64
}
