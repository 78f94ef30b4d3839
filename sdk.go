package sdk

import (
	"github.com/vtelemetry/vsphere_sdk/common"
	"github.com/vtelemetry/vsphere_sdk/config"
	"github.com/vtelemetry/vsphere_sdk/metrics"
	"github.com/vtelemetry/vsphere_sdk/sink"
	"github.com/vtelemetry/vsphere_sdk/transcode"
)

// SDK version information
const (
	Version = "v0.1.0"
)

// Re-export main types for user convenience
type (
	// Config SDK common configuration
	Config = config.Config
	// ClientConfig endpoint and behavior configuration
	ClientConfig = config.ClientConfig
	// ObjectRef opaque managed object reference
	ObjectRef = common.ObjectRef
	// PropertySet one inventory object with its property values
	PropertySet = common.PropertySet
	// MetricDescriptor performance counter metadata
	MetricDescriptor = common.MetricDescriptor
	// MetricInstance one discovered counter/instance pair
	MetricInstance = common.MetricInstance
	// PipelineResult complete metric pipeline output
	PipelineResult = common.PipelineResult
	// EntityMetrics decoded time-series query result
	EntityMetrics = common.EntityMetrics
	// OutputOptions per-call diagnostic output flags
	OutputOptions = common.OutputOptions
	// CallResult per-call diagnostics
	CallResult = common.CallResult
	// QuerySpec time-series query parameters
	QuerySpec = metrics.QuerySpec
	// Schema always-array tag declarations for transcoding
	Schema = transcode.Schema
	// SinkConfig telemetry sink storage configuration
	SinkConfig = sink.ProviderConfig
)

// Re-export constants
const (
	KindVirtualMachine         = common.KindVirtualMachine
	KindHostSystem             = common.KindHostSystem
	KindComputeResource        = common.KindComputeResource
	KindClusterComputeResource = common.KindClusterComputeResource
)

// Re-export main functions
var (
	// DefaultConfig creates default configuration
	DefaultConfig = config.DefaultConfig
	// NewDebugConfig creates debug configuration
	NewDebugConfig = config.NewDebugConfig
	// NewClientConfig creates client configuration with defaults
	NewClientConfig = config.NewClientConfig
	// LoadClientConfig reads client configuration from a file
	LoadClientConfig = config.LoadClientConfig
	// NewSchema builds an always-array tag schema
	NewSchema = transcode.NewSchema
)
