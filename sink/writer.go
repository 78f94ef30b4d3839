package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vtelemetry/vsphere_sdk/common"
)

// WriterOptions configures a TelemetryWriter
type WriterOptions struct {
	// Logger log instance, nil means no logging
	Logger *zap.Logger
	// Overwrite whether existing objects may be overwritten; when false a
	// colliding write fails with ErrObjectExists
	Overwrite bool
}

// TelemetryWriter persists pipeline output and time-series results as
// gzip-compressed JSON documents
type TelemetryWriter struct {
	provider  ObjectStorageProvider
	logger    *zap.Logger
	overwrite bool

	gzipWriter *gzip.Writer
	buffer     *bytes.Buffer
	mu         sync.Mutex // protects gzipWriter and buffer from concurrent access
}

// NewTelemetryWriter creates a new telemetry writer
func NewTelemetryWriter(provider ObjectStorageProvider, opts *WriterOptions) *TelemetryWriter {
	logger := zap.NewNop()
	overwrite := false
	if opts != nil {
		if opts.Logger != nil {
			logger = opts.Logger
		}
		overwrite = opts.Overwrite
	}

	buffer := &bytes.Buffer{}
	return &TelemetryWriter{
		provider:   provider,
		logger:     logger,
		overwrite:  overwrite,
		gzipWriter: gzip.NewWriter(buffer),
		buffer:     buffer,
	}
}

// WritePipelineResult writes one metric pipeline result.
// Path: telemetry/metrics/{timestamp}/{kind}.json.gz
func (w *TelemetryWriter) WritePipelineResult(ctx context.Context, kind string, timestamp int64, result *common.PipelineResult) error {
	if kind == "" {
		return fmt.Errorf("object kind cannot be empty")
	}
	if result == nil {
		return fmt.Errorf("pipeline result cannot be nil")
	}
	path := fmt.Sprintf("telemetry/metrics/%d/%s.json.gz", timestamp, kind)
	return w.writeDocument(ctx, path, result)
}

// WriteSeries writes one decoded time-series query result.
// Path: telemetry/series/{timestamp}/{entity-kind}-{entity-id}.json.gz
func (w *TelemetryWriter) WriteSeries(ctx context.Context, timestamp int64, series *common.EntityMetrics) error {
	if series == nil {
		return fmt.Errorf("series cannot be nil")
	}
	if series.Entity.IsZero() {
		return fmt.Errorf("series entity reference cannot be empty")
	}
	path := fmt.Sprintf("telemetry/series/%d/%s-%s.json.gz", timestamp, series.Entity.Kind, series.Entity.Value)
	return w.writeDocument(ctx, path, series)
}

// writeDocument marshals, compresses and uploads one document
func (w *TelemetryWriter) writeDocument(ctx context.Context, path string, doc any) error {
	if !w.overwrite {
		exists, err := w.provider.Exists(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to check if object exists: %w", err)
		}
		if exists {
			w.logger.Warn("Object already exists, refusing to overwrite",
				zap.String("path", path),
			)
			return fmt.Errorf("%w: %s", ErrObjectExists, path)
		}
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry document: %w", err)
	}

	compressed, err := w.compressDataReuse(jsonData)
	if err != nil {
		return fmt.Errorf("failed to compress telemetry document: %w", err)
	}

	if err := w.provider.Upload(ctx, path, bytes.NewReader(compressed)); err != nil {
		return fmt.Errorf("failed to upload telemetry document: %w", err)
	}

	w.logger.Debug("Wrote telemetry document",
		zap.String("path", path),
		zap.Int("size_bytes", len(compressed)),
	)
	return nil
}

// Close releases the writer's compression resources
func (w *TelemetryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.gzipWriter != nil {
		err := w.gzipWriter.Close()
		w.gzipWriter = nil
		return err
	}
	return nil
}

// compressDataReuse uses the reusable gzip writer to compress data
func (w *TelemetryWriter) compressDataReuse(data []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.gzipWriter == nil {
		return nil, fmt.Errorf("writer is closed")
	}

	w.buffer.Reset()
	w.gzipWriter.Reset(w.buffer)

	if _, err := w.gzipWriter.Write(data); err != nil {
		return nil, err
	}
	// Close flushes the stream; Reset at the top of the next call makes the
	// writer reusable again
	if err := w.gzipWriter.Close(); err != nil {
		return nil, err
	}

	result := make([]byte, w.buffer.Len())
	copy(result, w.buffer.Bytes())
	return result, nil
}
