package sink

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtelemetry/vsphere_sdk/common"
)

func newReader(s string) io.Reader {
	return strings.NewReader(s)
}

func localProvider(t *testing.T) *LocalFSProvider {
	t.Helper()
	provider, err := NewLocalFSProvider(&ProviderConfig{
		Type:    ProviderTypeLocalFS,
		LocalFS: &LocalFSConfig{BasePath: t.TempDir(), CreateDirs: true},
	})
	require.NoError(t, err)
	return provider
}

func samplePipelineResult() *common.PipelineResult {
	desc := &common.MetricDescriptor{CounterID: 2, GroupLabel: "CPU", NameLabel: "Usage", Unit: "%"}
	return &common.PipelineResult{
		Objects: []common.ObjectMetrics{{
			Obj:     common.ObjectRef{Kind: "VirtualMachine", Value: "vm-101"},
			Name:    "vm-a",
			Metrics: []common.EnrichedMetric{{Descriptor: desc}},
		}},
		Catalog: common.MetricCatalog{2: desc},
	}
}

func readGzipJSON(t *testing.T, provider ObjectStorageProvider, path string, out any) {
	t.Helper()
	rc, err := provider.Download(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	gz, err := gzip.NewReader(rc)
	require.NoError(t, err)
	defer gz.Close()

	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestWritePipelineResultRoundTrip(t *testing.T) {
	provider := localProvider(t)
	w := NewTelemetryWriter(provider, nil)
	defer w.Close()

	require.NoError(t, w.WritePipelineResult(context.Background(), "VirtualMachine", 1756636800, samplePipelineResult()))

	var got common.PipelineResult
	readGzipJSON(t, provider, "telemetry/metrics/1756636800/VirtualMachine.json.gz", &got)
	require.Len(t, got.Objects, 1)
	assert.Equal(t, "vm-a", got.Objects[0].Name)
	assert.Equal(t, "Usage", got.Catalog[2].NameLabel)
}

func TestWritePipelineResultRefusesOverwrite(t *testing.T) {
	provider := localProvider(t)
	w := NewTelemetryWriter(provider, nil)
	defer w.Close()

	result := samplePipelineResult()
	require.NoError(t, w.WritePipelineResult(context.Background(), "VirtualMachine", 100, result))

	err := w.WritePipelineResult(context.Background(), "VirtualMachine", 100, result)
	assert.ErrorIs(t, err, ErrObjectExists)
}

func TestWritePipelineResultOverwriteEnabled(t *testing.T) {
	provider := localProvider(t)
	w := NewTelemetryWriter(provider, &WriterOptions{Overwrite: true})
	defer w.Close()

	result := samplePipelineResult()
	require.NoError(t, w.WritePipelineResult(context.Background(), "VirtualMachine", 100, result))
	require.NoError(t, w.WritePipelineResult(context.Background(), "VirtualMachine", 100, result))
}

func TestWritePipelineResultValidation(t *testing.T) {
	w := NewTelemetryWriter(localProvider(t), nil)
	defer w.Close()

	assert.Error(t, w.WritePipelineResult(context.Background(), "", 100, samplePipelineResult()))
	assert.Error(t, w.WritePipelineResult(context.Background(), "VirtualMachine", 100, nil))
}

func TestWriteSeriesRoundTrip(t *testing.T) {
	provider := localProvider(t)
	w := NewTelemetryWriter(provider, nil)
	defer w.Close()

	series := &common.EntityMetrics{
		Entity:  common.ObjectRef{Kind: "VirtualMachine", Value: "vm-101"},
		Samples: []common.SampleInfo{{Timestamp: "2026-08-31T10:00:00Z", Interval: 20}},
		Series:  []common.SampleSeries{{CounterID: 2, Values: []int64{100, 250}}},
	}
	require.NoError(t, w.WriteSeries(context.Background(), 200, series))

	var got common.EntityMetrics
	readGzipJSON(t, provider, "telemetry/series/200/VirtualMachine-vm-101.json.gz", &got)
	assert.Equal(t, series.Entity, got.Entity)
	assert.Equal(t, []int64{100, 250}, got.Series[0].Values)
}

func TestWriteSeriesValidation(t *testing.T) {
	w := NewTelemetryWriter(localProvider(t), nil)
	defer w.Close()

	assert.Error(t, w.WriteSeries(context.Background(), 100, nil))
	assert.Error(t, w.WriteSeries(context.Background(), 100, &common.EntityMetrics{}))
}

func TestWriterClosedRejectsWrites(t *testing.T) {
	w := NewTelemetryWriter(localProvider(t), nil)
	require.NoError(t, w.Close())

	err := w.WritePipelineResult(context.Background(), "VirtualMachine", 100, samplePipelineResult())
	assert.Error(t, err)
}

func TestLocalFSProviderExistsAndDelete(t *testing.T) {
	provider := localProvider(t)
	ctx := context.Background()

	exists, err := provider.Exists(ctx, "a/b.json.gz")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, provider.Upload(ctx, "a/b.json.gz", newReader("data")))
	exists, err = provider.Exists(ctx, "a/b.json.gz")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, provider.Delete(ctx, "a/b.json.gz"))
	exists, err = provider.Exists(ctx, "a/b.json.gz")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalFSProviderList(t *testing.T) {
	provider := localProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.Upload(ctx, "telemetry/metrics/1/HostSystem.json.gz", newReader("a")))
	require.NoError(t, provider.Upload(ctx, "telemetry/metrics/2/VirtualMachine.json.gz", newReader("b")))
	require.NoError(t, provider.Upload(ctx, "telemetry/series/2/x.json.gz", newReader("c")))

	objects, err := provider.List(ctx, "telemetry/metrics")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"telemetry/metrics/1/HostSystem.json.gz",
		"telemetry/metrics/2/VirtualMachine.json.gz",
	}, objects)
}

func TestLocalFSProviderPrefix(t *testing.T) {
	base := t.TempDir()
	provider, err := NewLocalFSProvider(&ProviderConfig{
		Type:    ProviderTypeLocalFS,
		Prefix:  "cluster-a/",
		LocalFS: &LocalFSConfig{BasePath: base, CreateDirs: true},
	})
	require.NoError(t, err)

	require.NoError(t, provider.Upload(context.Background(), "x.json.gz", newReader("a")))
	assert.FileExists(t, filepath.Join(base, "cluster-a", "x.json.gz"))
}
