package inventory

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtelemetry/vsphere_sdk/common"
	"github.com/vtelemetry/vsphere_sdk/config"
	"github.com/vtelemetry/vsphere_sdk/session"
	"github.com/vtelemetry/vsphere_sdk/transport"
)

const serviceContentResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
<soapenv:Body>
<RetrieveServiceContentResponse xmlns="urn:vim25">
<returnval>
<rootFolder type="Folder">group-d1</rootFolder>
<propertyCollector type="PropertyCollector">propertyCollector</propertyCollector>
<sessionManager type="SessionManager">SessionMgr</sessionManager>
<perfManager type="PerformanceManager">PerfMgr</perfManager>
</returnval>
</RetrieveServiceContentResponse>
</soapenv:Body>
</soapenv:Envelope>`

const retrievePropertiesResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
<soapenv:Body>
<RetrievePropertiesResponse xmlns="urn:vim25">
<returnval>
<obj type="VirtualMachine">vm-101</obj>
<propSet><name>name</name><val>vm-a</val></propSet>
</returnval>
<returnval>
<obj type="VirtualMachine">vm-102</obj>
<propSet><name>name</name><val>vm-b</val></propSet>
<propSet><name>runtime.powerState</name><val>poweredOn</val></propSet>
</returnval>
</RetrievePropertiesResponse>
</soapenv:Body>
</soapenv:Envelope>`

type fakeTransport struct {
	mu       sync.Mutex
	payloads [][]byte
}

var _ transport.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) Call(_ context.Context, payload []byte) (*transport.Response, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()

	var body string
	switch {
	case bytes.Contains(payload, []byte("<RetrieveServiceContent")):
		body = serviceContentResponse
	case bytes.Contains(payload, []byte("<RetrieveProperties ")):
		body = retrievePropertiesResponse
	}
	headers := http.Header{}
	headers.Set("Set-Cookie", `vmware_soap_session="t"; Path=/`)
	return &transport.Response{Body: []byte(body), Headers: headers}, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func authenticated(t *testing.T, tr *fakeTransport) *session.Manager {
	t.Helper()
	mgr := session.NewManager(tr, config.DefaultConfig())
	require.NoError(t, mgr.Login(context.Background(), "admin", "secret"))
	return mgr
}

func TestRetrieveBeforeLoginFails(t *testing.T) {
	tr := &fakeTransport{}
	r := NewRetriever(tr, session.NewManager(tr, config.DefaultConfig()), config.DefaultConfig())

	_, err := r.Retrieve(context.Background(), "VirtualMachine", []string{"name"}, false)
	assert.ErrorIs(t, err, common.ErrSession)
	assert.Equal(t, 0, tr.calls(), "the gate rejects before any network call")
}

func TestRetrieveEmptyObjectTypeFails(t *testing.T) {
	tr := &fakeTransport{}
	r := NewRetriever(tr, authenticated(t, tr), config.DefaultConfig())
	before := tr.calls()

	_, err := r.Retrieve(context.Background(), "", []string{"name"}, false)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, before, tr.calls())
}

func TestRetrieveParsesObjectsAndProperties(t *testing.T) {
	tr := &fakeTransport{}
	r := NewRetriever(tr, authenticated(t, tr), config.DefaultConfig())

	sets, err := r.Retrieve(context.Background(), "VirtualMachine", []string{"name"}, false)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	assert.Equal(t, common.ObjectRef{Kind: "VirtualMachine", Value: "vm-101"}, sets[0].Obj)
	assert.Equal(t, map[string]any{"name": "vm-a"}, sets[0].Props)

	assert.Equal(t, "vm-102", sets[1].Obj.Value)
	assert.Equal(t, "vm-b", sets[1].Props["name"])
	assert.Equal(t, "poweredOn", sets[1].Props["runtime.powerState"])
}

func TestRetrievePayloadCarriesTraversalGraph(t *testing.T) {
	tr := &fakeTransport{}
	r := NewRetriever(tr, authenticated(t, tr), config.DefaultConfig())

	_, err := r.Retrieve(context.Background(), "HostSystem", []string{"name"}, false)
	require.NoError(t, err)

	payload := string(tr.payloads[len(tr.payloads)-1])
	assert.Contains(t, payload, `<_this type="PropertyCollector">propertyCollector</_this>`)
	assert.Contains(t, payload, `<obj type="Folder">group-d1</obj>`)
	assert.Contains(t, payload, "<type>HostSystem</type>")
	for _, rule := range TraversalGraph() {
		assert.Contains(t, payload, "<name>"+rule.Name+"</name>")
	}
}

func TestTraversalGraphSelectsResolveToNamedRules(t *testing.T) {
	rules := TraversalGraph()
	names := make(map[string]bool, len(rules))
	for _, rule := range rules {
		assert.False(t, names[rule.Name], "duplicate rule %s", rule.Name)
		names[rule.Name] = true
	}
	for _, rule := range rules {
		for _, sel := range rule.Select {
			assert.True(t, names[sel], "rule %s references unknown rule %s", rule.Name, sel)
		}
	}
}
