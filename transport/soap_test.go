package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtelemetry/vsphere_sdk/common"
)

func TestSOAPCallSendsFixedHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("<ok/>"))
	}))
	defer server.Close()

	soap := NewSOAP(server.URL, false, 0, nil)
	resp, err := soap.Call(context.Background(), []byte("<payload/>"))
	require.NoError(t, err)

	assert.Equal(t, "text/xml; charset=utf-8", got.Get("Content-Type"))
	assert.Equal(t, "urn:vim25/6.7", got.Get("SOAPAction"))
	assert.Equal(t, "vsphere_sdk-go/0.1.0", got.Get("User-Agent"))
	assert.Empty(t, got.Get("Cookie"), "no cookie before login")
	assert.Equal(t, []byte("<ok/>"), resp.Body)
}

func TestSOAPCallAttachesSessionCookie(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Cookie")
		w.Write([]byte("<ok/>"))
	}))
	defer server.Close()

	soap := NewSOAP(server.URL, false, 0, nil)
	soap.SetSessionCookie(`vmware_soap_session="abc123"; Path=/`)

	_, err := soap.Call(context.Background(), []byte("<payload/>"))
	require.NoError(t, err)
	assert.Equal(t, `vmware_soap_session="abc123"; Path=/`, got)
}

func TestSOAPCallErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server fault", http.StatusInternalServerError)
	}))
	defer server.Close()

	soap := NewSOAP(server.URL, false, 0, nil)
	_, err := soap.Call(context.Background(), []byte("<payload/>"))
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestSOAPCallTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("<ok/>"))
	}))
	defer server.Close()

	soap := NewSOAP(server.URL, false, 30*time.Millisecond, nil)
	_, err := soap.Call(context.Background(), []byte("<payload/>"))
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestSOAPCallConnectionFailure(t *testing.T) {
	// a closed server guarantees a refused connection
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	soap := NewSOAP(endpoint, false, 0, nil)
	_, err := soap.Call(context.Background(), []byte("<payload/>"))
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestPacedForwardsSessionCookie(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Cookie")
		w.Write([]byte("<ok/>"))
	}))
	defer server.Close()

	paced := NewPaced(NewSOAP(server.URL, false, 0, nil), 0, nil)
	paced.SetSessionCookie("token=1")

	_, err := paced.Call(context.Background(), []byte("<payload/>"))
	require.NoError(t, err)
	assert.Equal(t, "token=1", got)
}
