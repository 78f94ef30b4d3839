package sdk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vtelemetry/vsphere_sdk/common"
	"github.com/vtelemetry/vsphere_sdk/config"
	"github.com/vtelemetry/vsphere_sdk/envelope"
	"github.com/vtelemetry/vsphere_sdk/inventory"
	"github.com/vtelemetry/vsphere_sdk/metrics"
	"github.com/vtelemetry/vsphere_sdk/session"
	"github.com/vtelemetry/vsphere_sdk/sink"
	"github.com/vtelemetry/vsphere_sdk/transcode"
	"github.com/vtelemetry/vsphere_sdk/transport"
)

// Client is the top-level entry point: one paced transport, one session,
// and the inventory and metric services bound to it
type Client struct {
	clientCfg *config.ClientConfig
	tr        *transport.Paced
	sess      *session.Manager
	inv       *inventory.Retriever
	pipe      *metrics.Pipeline
	writer    *sink.TelemetryWriter
	schema    *transcode.Schema
	logger    *zap.Logger
}

// NewClient creates a client talking HTTP SOAP to the configured endpoint
func NewClient(clientCfg *config.ClientConfig, cfg *config.Config) (*Client, error) {
	if clientCfg == nil {
		return nil, fmt.Errorf("%w: client config cannot be nil", common.ErrConfig)
	}
	if err := clientCfg.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	soap := transport.NewSOAP(clientCfg.Endpoint, clientCfg.InsecureSkipVerify, clientCfg.CallTimeout(), cfg.GetLogger())
	return newClient(clientCfg, cfg, soap)
}

// NewClientWithTransport creates a client over a caller-supplied raw
// transport. The pacing layer still wraps it; useful for tests and custom
// transports.
func NewClientWithTransport(clientCfg *config.ClientConfig, cfg *config.Config, raw transport.Transport) (*Client, error) {
	if clientCfg == nil {
		return nil, fmt.Errorf("%w: client config cannot be nil", common.ErrConfig)
	}
	if err := clientCfg.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return newClient(clientCfg, cfg, raw)
}

func newClient(clientCfg *config.ClientConfig, cfg *config.Config, raw transport.Transport) (*Client, error) {
	paced := transport.NewPaced(raw, clientCfg.MinCallInterval(), cfg.GetLogger())
	sess := session.NewManager(paced, cfg)
	inv := inventory.NewRetriever(paced, sess, cfg)
	pipe := metrics.NewPipeline(paced, sess, inv, cfg).WithParallelism(clientCfg.Parallelism)

	var writer *sink.TelemetryWriter
	if clientCfg.Sink != nil {
		provider, err := sink.NewObjectStorageProvider(clientCfg.Sink)
		if err != nil {
			return nil, fmt.Errorf("%w: telemetry sink: %v", common.ErrConfig, err)
		}
		writer = sink.NewTelemetryWriter(provider, &sink.WriterOptions{Logger: cfg.GetLogger()})
	}

	return &Client{
		clientCfg: clientCfg,
		tr:        paced,
		sess:      sess,
		inv:       inv,
		pipe:      pipe,
		writer:    writer,
		schema:    transcode.ResponseSchema(),
		logger:    cfg.GetLogger(),
	}, nil
}

// DiscoverService fetches the service content and stores the server-side
// manager references
func (c *Client) DiscoverService(ctx context.Context) error {
	return c.sess.DiscoverService(ctx)
}

// Login authenticates the session with the configured credentials, running
// service discovery first when needed
func (c *Client) Login(ctx context.Context) error {
	return c.sess.Login(ctx, c.clientCfg.Username, c.clientCfg.Password)
}

// State returns the session lifecycle state
func (c *Client) State() session.State {
	return c.sess.State()
}

// Stats returns the accumulated transport call statistics
func (c *Client) Stats() transport.Stats {
	return c.tr.Stats()
}

// Inventory enumerates all inventory objects of objectType with the given
// property paths (all properties when includeAll)
func (c *Client) Inventory(ctx context.Context, objectType string, propertyPaths []string, includeAll bool) ([]common.PropertySet, error) {
	return c.inv.Retrieve(ctx, objectType, propertyPaths, includeAll)
}

// CollectMetrics runs the metric pipeline for one inventory root
func (c *Client) CollectMetrics(ctx context.Context, kind common.ManagedObjectKind) (*common.PipelineResult, error) {
	return c.pipe.Collect(ctx, kind)
}

// VirtualMachineMetrics runs the metric pipeline over all virtual machines
func (c *Client) VirtualMachineMetrics(ctx context.Context) (*common.PipelineResult, error) {
	return c.pipe.Collect(ctx, common.KindVirtualMachine)
}

// HostMetrics runs the metric pipeline over all hosts
func (c *Client) HostMetrics(ctx context.Context) (*common.PipelineResult, error) {
	return c.pipe.Collect(ctx, common.KindHostSystem)
}

// ClusterMetrics runs the metric pipeline over all clusters
func (c *Client) ClusterMetrics(ctx context.Context) (*common.PipelineResult, error) {
	return c.pipe.Collect(ctx, common.KindClusterComputeResource)
}

// QueryPerf retrieves time-series samples for one entity
func (c *Client) QueryPerf(ctx context.Context, spec metrics.QuerySpec) (*common.EntityMetrics, error) {
	return c.pipe.Query(ctx, spec)
}

// ExportMetrics writes a pipeline result to the configured telemetry sink
func (c *Client) ExportMetrics(ctx context.Context, kind common.ManagedObjectKind, result *common.PipelineResult) error {
	if c.writer == nil {
		return fmt.Errorf("%w: no telemetry sink configured", common.ErrConfig)
	}
	return c.writer.WritePipelineResult(ctx, string(kind), time.Now().Unix(), result)
}

// ExportSeries writes a time-series result to the configured telemetry sink
func (c *Client) ExportSeries(ctx context.Context, series *common.EntityMetrics) error {
	if c.writer == nil {
		return fmt.Errorf("%w: no telemetry sink configured", common.ErrConfig)
	}
	return c.writer.WriteSeries(ctx, time.Now().Unix(), series)
}

// Invoke issues one typed request and returns its diagnostics, populating
// only the fields opts enables plus the always-present error field. A zero
// opts falls back to the output flags configured on the client. Invoke
// never mutates session state: login must go through Login, and every
// operation except service discovery requires an authenticated session,
// failing without a network call otherwise.
func (c *Client) Invoke(ctx context.Context, req envelope.Request, opts common.OutputOptions) *common.CallResult {
	result := &common.CallResult{}
	if opts == (common.OutputOptions{}) {
		opts = c.clientCfg.Output
	}

	op := req.Operation()
	if op != "RetrieveServiceContent" {
		if err := c.sess.RequireAuthenticated(); err != nil {
			result.SetError(err)
			return result
		}
	}

	resp, err := c.tr.Call(ctx, envelope.Build(req))
	if err != nil {
		result.SetError(err)
		return result
	}

	if opts.IncludeRaw {
		result.Raw = resp.Body
	}
	if opts.IncludeHeaders {
		headers := make(map[string]string, len(resp.Headers))
		for name := range resp.Headers {
			headers[name] = resp.Headers.Get(name)
		}
		result.Headers = headers
	}
	if opts.IncludeJSON || opts.IncludeValue {
		root, err := transcode.Decode(resp.Body, c.schema)
		if err != nil {
			result.SetError(err)
			return result
		}
		value := transcode.Unwrap(root, op)
		if opts.IncludeValue {
			result.Value = value
		}
		if opts.IncludeJSON {
			text, err := transcode.EmitJSON(value)
			if err != nil {
				result.SetError(err)
				return result
			}
			result.JSON = text
		}
	}
	return result
}

// Close releases client resources
func (c *Client) Close() error {
	if c.writer != nil {
		return c.writer.Close()
	}
	return nil
}
