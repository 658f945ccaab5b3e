// Package metrics defines the OpenTelemetry instruments the buffer pool
// manager reports through (evictions included; the replacer itself records
// none).
package metrics

import "go.opentelemetry.io/otel/metric"

// BufferPool holds the instruments for one BufferPoolManager instance.
type BufferPool struct {
	Hits            metric.Int64Counter
	Misses          metric.Int64Counter
	Evictions       metric.Int64Counter
	DirtyWritebacks metric.Int64Counter
	PinnedFrames    metric.Int64UpDownCounter
	IOWaitMillis    metric.Int64Histogram
}

// New builds and registers the buffer pool instruments against meter.
func New(meter metric.Meter) (*BufferPool, error) {
	hits, err := meter.Int64Counter(
		"pagecore.bufferpool.hits_total",
		metric.WithDescription("Pages served from an already-resident frame."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"pagecore.bufferpool.misses_total",
		metric.WithDescription("Pages that required a frame acquisition and/or disk read."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"pagecore.bufferpool.evictions_total",
		metric.WithDescription("Frames reclaimed from the replacer to satisfy a fetch/new page."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	dirtyWritebacks, err := meter.Int64Counter(
		"pagecore.bufferpool.dirty_writebacks_total",
		metric.WithDescription("Write-backs issued for a dirty victim before its frame was reused."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	pinned, err := meter.Int64UpDownCounter(
		"pagecore.bufferpool.pinned_frames",
		metric.WithDescription("Frames currently pinned (pin_count > 0)."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	ioWait, err := meter.Int64Histogram(
		"pagecore.bufferpool.io_wait",
		metric.WithDescription("Time spent waiting on a scheduled disk read or write."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &BufferPool{
		Hits:            hits,
		Misses:          misses,
		Evictions:       evictions,
		DirtyWritebacks: dirtyWritebacks,
		PinnedFrames:    pinned,
		IOWaitMillis:    ioWait,
	}, nil
}
