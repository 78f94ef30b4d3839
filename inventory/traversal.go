// Package inventory enumerates the server's managed-object hierarchy
// through a single fixed traversal query.
package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vtelemetry/vsphere_sdk/common"
	"github.com/vtelemetry/vsphere_sdk/config"
	"github.com/vtelemetry/vsphere_sdk/envelope"
	"github.com/vtelemetry/vsphere_sdk/session"
	"github.com/vtelemetry/vsphere_sdk/transcode"
	"github.com/vtelemetry/vsphere_sdk/transport"
)

// TraversalGraph returns the fixed named walk rules that let one
// RetrieveProperties request enumerate the entire inventory regardless of
// nesting depth: folders recurse into child folders, datacenters fan out
// into their vm/host/datastore/network folders, compute resources into
// hosts and resource pools, resource pools into nested pools and VMs, and
// hosts into VMs. Recursion is expressed through the rule names, so the
// graph stays finite.
func TraversalGraph() []envelope.TraversalSpec {
	return []envelope.TraversalSpec{
		{
			Name: "visitFolders", Type: "Folder", Path: "childEntity",
			Select: []string{
				"visitFolders",
				"dcToVmFolder", "dcToHostFolder", "dcToDatastoreFolder", "dcToNetworkFolder",
				"crToHost", "crToResourcePool",
				"rpToRp", "hostToVm", "rpToVm",
			},
		},
		{Name: "dcToVmFolder", Type: "Datacenter", Path: "vmFolder", Select: []string{"visitFolders"}},
		{Name: "dcToHostFolder", Type: "Datacenter", Path: "hostFolder", Select: []string{"visitFolders"}},
		{Name: "dcToDatastoreFolder", Type: "Datacenter", Path: "datastoreFolder", Select: []string{"visitFolders"}},
		{Name: "dcToNetworkFolder", Type: "Datacenter", Path: "networkFolder", Select: []string{"visitFolders"}},
		{Name: "crToHost", Type: "ComputeResource", Path: "host", Select: []string{"hostToVm"}},
		{Name: "crToResourcePool", Type: "ComputeResource", Path: "resourcePool", Select: []string{"rpToRp", "rpToVm"}},
		{Name: "rpToRp", Type: "ResourcePool", Path: "resourcePool", Select: []string{"rpToRp", "rpToVm"}},
		{Name: "hostToVm", Type: "HostSystem", Path: "vm", Select: []string{"visitFolders"}},
		{Name: "rpToVm", Type: "ResourcePool", Path: "vm"},
	}
}

// Retriever executes traversal queries over an authenticated session
type Retriever struct {
	tr     transport.Transport
	sess   *session.Manager
	schema *transcode.Schema
	logger *zap.Logger
}

// NewRetriever creates an inventory retriever bound to one session
func NewRetriever(tr transport.Transport, sess *session.Manager, cfg *config.Config) *Retriever {
	return &Retriever{
		tr:     tr,
		sess:   sess,
		schema: transcode.ResponseSchema(),
		logger: cfg.GetLogger(),
	}
}

// Retrieve returns every inventory object of objectType together with the
// requested property paths (all properties when includeAll). The result is
// a flat list in server order; property values are not interpreted.
// Fails with a session error before login and a validation error for an
// empty objectType, in both cases without a network call.
func (r *Retriever) Retrieve(ctx context.Context, objectType string, propertyPaths []string, includeAll bool) ([]common.PropertySet, error) {
	if err := r.sess.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if objectType == "" {
		return nil, fmt.Errorf("%w: object type cannot be empty", common.ErrValidation)
	}

	collector, ok := r.sess.Ref(session.RefPropertyCollector)
	if !ok {
		return nil, fmt.Errorf("%w: session has no property collector reference", common.ErrSession)
	}
	rootFolder, ok := r.sess.Ref(session.RefRootFolder)
	if !ok {
		return nil, fmt.Errorf("%w: session has no root folder reference", common.ErrSession)
	}

	resp, err := r.tr.Call(ctx, envelope.Build(envelope.RetrievePropertiesRequest{
		Collector:  collector,
		Root:       rootFolder,
		ObjectType: objectType,
		PathSet:    propertyPaths,
		IncludeAll: includeAll,
		Traversal:  TraversalGraph(),
	}))
	if err != nil {
		return nil, err
	}

	root, err := transcode.Decode(resp.Body, r.schema)
	if err != nil {
		return nil, err
	}
	body := transcode.Unwrap(root, "RetrieveProperties")

	var sets []common.PropertySet
	for _, entry := range transcode.ArrayField(body, "returnval") {
		obj, err := transcode.RefField(entry, "obj")
		if err != nil {
			return nil, err
		}
		props := make(map[string]any)
		for _, prop := range transcode.ArrayField(entry, "propSet") {
			name, ok := transcode.Field(prop, "name")
			if !ok {
				return nil, fmt.Errorf("%w: property entry without name for %s", common.ErrProtocol, obj.Value)
			}
			val, _ := transcode.Field(prop, "val")
			props[transcode.Text(name)] = val
		}
		sets = append(sets, common.PropertySet{Obj: obj, Props: props})
	}

	r.logger.Debug("Inventory traversal completed",
		zap.String("object_type", objectType),
		zap.Int("objects", len(sets)),
	)
	return sets, nil
}
