// Package metrics discovers per-object performance metrics, fetches counter
// metadata, and joins both into enriched per-object catalogs.
package metrics

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vtelemetry/vsphere_sdk/common"
	"github.com/vtelemetry/vsphere_sdk/config"
	"github.com/vtelemetry/vsphere_sdk/envelope"
	"github.com/vtelemetry/vsphere_sdk/internal/cache"
	"github.com/vtelemetry/vsphere_sdk/inventory"
	"github.com/vtelemetry/vsphere_sdk/session"
	"github.com/vtelemetry/vsphere_sdk/transcode"
	"github.com/vtelemetry/vsphere_sdk/transport"
)

// Pipeline runs the discovery -> dedup -> metadata -> join aggregation for
// one session. The first failing step aborts the run; no partial results
// are returned.
type Pipeline struct {
	tr          transport.Transport
	sess        *session.Manager
	inv         *inventory.Retriever
	cache       *cache.DescriptorCache
	schema      *transcode.Schema
	logger      *zap.Logger
	parallelism int
}

// NewPipeline creates a metric pipeline bound to one session
func NewPipeline(tr transport.Transport, sess *session.Manager, inv *inventory.Retriever, cfg *config.Config) *Pipeline {
	return &Pipeline{
		tr:     tr,
		sess:   sess,
		inv:    inv,
		cache:  cache.NewDescriptorCache(),
		schema: transcode.ResponseSchema(),
		logger: cfg.GetLogger(),
	}
}

// WithParallelism sets the fan-out width for per-object metric discovery.
// Values below 2 keep the strictly sequential baseline.
func (p *Pipeline) WithParallelism(n int) *Pipeline {
	p.parallelism = n
	return p
}

// Collect runs the full pipeline for one inventory root: enumerate objects
// of kind, discover each object's available metrics in traversal order,
// fetch metadata for the deduplicated counter ids in one batched call, and
// join. All enriched entries reference descriptors from the single shared
// catalog in the result.
func (p *Pipeline) Collect(ctx context.Context, kind common.ManagedObjectKind) (*common.PipelineResult, error) {
	if !common.ValidObjectKinds[kind] {
		return nil, fmt.Errorf("%w: unsupported object kind %q", common.ErrValidation, kind)
	}

	objects, err := p.inv.Retrieve(ctx, string(kind), []string{"name"}, false)
	if err != nil {
		return nil, err
	}

	discovered, err := p.discoverAll(ctx, objects)
	if err != nil {
		return nil, err
	}

	// distinct counter ids in first-seen order across the traversal order
	var ids []int32
	seen := make(map[int32]struct{})
	for _, metrics := range discovered {
		for _, m := range metrics {
			if _, ok := seen[m.CounterID]; !ok {
				seen[m.CounterID] = struct{}{}
				ids = append(ids, m.CounterID)
			}
		}
	}

	catalog, err := p.CounterMetadata(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]common.ObjectMetrics, 0, len(objects))
	for i, obj := range objects {
		enriched := make([]common.EnrichedMetric, 0, len(discovered[i]))
		for _, m := range discovered[i] {
			desc, ok := catalog[m.CounterID]
			if !ok {
				return nil, fmt.Errorf("%w: no metadata for counter %d", common.ErrProtocol, m.CounterID)
			}
			enriched = append(enriched, common.EnrichedMetric{Descriptor: desc, Instance: m.Instance})
		}
		results = append(results, common.ObjectMetrics{
			Obj:     obj.Obj,
			Name:    transcode.Text(obj.Props["name"]),
			Metrics: enriched,
		})
	}

	p.logger.Info("Metric pipeline completed",
		zap.String("kind", string(kind)),
		zap.Int("objects", len(results)),
		zap.Int("distinct_counters", len(catalog)),
	)
	return &common.PipelineResult{Objects: results, Catalog: catalog}, nil
}

// discoverAll runs metric discovery for every object, sequentially by
// default. With fan-out enabled the result order stays keyed by object
// position, the shared pacing gate still applies globally, and the first
// failing discovery cancels the rest.
func (p *Pipeline) discoverAll(ctx context.Context, objects []common.PropertySet) ([][]common.MetricInstance, error) {
	discovered := make([][]common.MetricInstance, len(objects))

	if p.parallelism > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.parallelism)
		for i, obj := range objects {
			i, obj := i, obj
			g.Go(func() error {
				metrics, err := p.AvailableMetrics(gctx, obj.Obj)
				if err != nil {
					return err
				}
				discovered[i] = metrics
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return discovered, nil
	}

	for i, obj := range objects {
		metrics, err := p.AvailableMetrics(ctx, obj.Obj)
		if err != nil {
			return nil, err
		}
		discovered[i] = metrics
	}
	return discovered, nil
}

// AvailableMetrics returns the (counterId, instance) pairs entity currently
// reports
func (p *Pipeline) AvailableMetrics(ctx context.Context, entity common.ObjectRef) ([]common.MetricInstance, error) {
	if err := p.sess.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if entity.IsZero() {
		return nil, fmt.Errorf("%w: entity reference cannot be empty", common.ErrValidation)
	}

	perfManager, ok := p.sess.Ref(session.RefPerfManager)
	if !ok {
		return nil, fmt.Errorf("%w: session has no performance manager reference", common.ErrSession)
	}

	resp, err := p.tr.Call(ctx, envelope.Build(envelope.AvailableMetricsRequest{
		PerfManager: perfManager,
		Entity:      entity,
	}))
	if err != nil {
		return nil, err
	}

	root, err := transcode.Decode(resp.Body, p.schema)
	if err != nil {
		return nil, err
	}
	body := transcode.Unwrap(root, "QueryAvailablePerfMetric")

	var metrics []common.MetricInstance
	for _, entry := range transcode.ArrayField(body, "returnval") {
		id, err := int32Field(entry, "counterId")
		if err != nil {
			return nil, err
		}
		instance, _ := transcode.Field(entry, "instance")
		metrics = append(metrics, common.MetricInstance{
			CounterID: id,
			Instance:  transcode.Text(instance),
		})
	}
	return metrics, nil
}

// CounterMetadata returns descriptors for ids, consulting the cache first
// and fetching the still-unseen remainder in one batched call. The returned
// map holds exactly the requested ids.
func (p *Pipeline) CounterMetadata(ctx context.Context, ids []int32) (common.MetricCatalog, error) {
	if err := p.sess.RequireAuthenticated(); err != nil {
		return nil, err
	}

	catalog := make(common.MetricCatalog, len(ids))
	if len(ids) == 0 {
		return catalog, nil
	}

	if missing := p.cache.Missing(ids); len(missing) > 0 {
		fetched, err := p.fetchCounterMetadata(ctx, missing)
		if err != nil {
			return nil, err
		}
		p.cache.PutAll(fetched)
	}

	for _, id := range ids {
		desc, ok := p.cache.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: server returned no metadata for counter %d", common.ErrProtocol, id)
		}
		catalog[id] = desc
	}
	return catalog, nil
}

// fetchCounterMetadata issues the batched metadata call for ids
func (p *Pipeline) fetchCounterMetadata(ctx context.Context, ids []int32) (common.MetricCatalog, error) {
	perfManager, ok := p.sess.Ref(session.RefPerfManager)
	if !ok {
		return nil, fmt.Errorf("%w: session has no performance manager reference", common.ErrSession)
	}

	resp, err := p.tr.Call(ctx, envelope.Build(envelope.CounterMetadataRequest{
		PerfManager: perfManager,
		CounterIDs:  ids,
	}))
	if err != nil {
		return nil, err
	}

	root, err := transcode.Decode(resp.Body, p.schema)
	if err != nil {
		return nil, err
	}
	body := transcode.Unwrap(root, "QueryPerfCounter")

	catalog := make(common.MetricCatalog, len(ids))
	for _, entry := range transcode.ArrayField(body, "returnval") {
		desc, err := decodeDescriptor(entry)
		if err != nil {
			return nil, err
		}
		catalog[desc.CounterID] = desc
	}
	return catalog, nil
}

// decodeDescriptor maps one PerfCounterInfo element to a descriptor
func decodeDescriptor(entry any) (*common.MetricDescriptor, error) {
	id, err := int32Field(entry, "key")
	if err != nil {
		return nil, err
	}

	nameInfo, _ := transcode.Field(entry, "nameInfo")
	groupInfo, _ := transcode.Field(entry, "groupInfo")
	unitInfo, _ := transcode.Field(entry, "unitInfo")

	level, _ := transcode.Field(entry, "level")
	var levelVal int32
	if text := transcode.Text(level); text != "" {
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid counter level %q", common.ErrProtocol, text)
		}
		levelVal = int32(n)
	}

	return &common.MetricDescriptor{
		CounterID:   id,
		GroupLabel:  textField(groupInfo, "label"),
		NameLabel:   textField(nameInfo, "label"),
		Description: textField(nameInfo, "summary"),
		Unit:        textField(unitInfo, "label"),
		RollupType:  textField(entry, "rollupType"),
		StatsType:   textField(entry, "statsType"),
		Level:       levelVal,
	}, nil
}

// int32Field reads a decimal leaf from a decoded map
func int32Field(v any, key string) (int32, error) {
	field, ok := transcode.Field(v, key)
	if !ok {
		return 0, fmt.Errorf("%w: missing %q element", common.ErrProtocol, key)
	}
	n, err := strconv.ParseInt(transcode.Text(field), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %q value %q", common.ErrProtocol, key, transcode.Text(field))
	}
	return int32(n), nil
}

// textField reads a text leaf from a decoded map, "" when absent
func textField(v any, key string) string {
	field, _ := transcode.Field(v, key)
	return transcode.Text(field)
}
