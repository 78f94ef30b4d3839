// Package session drives service discovery and authentication against the
// remote endpoint and holds the server-side manager references every later
// call needs.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vtelemetry/vsphere_sdk/common"
	"github.com/vtelemetry/vsphere_sdk/config"
	"github.com/vtelemetry/vsphere_sdk/envelope"
	"github.com/vtelemetry/vsphere_sdk/transcode"
	"github.com/vtelemetry/vsphere_sdk/transport"
)

// State is the session lifecycle state
type State int

const (
	// StateUnauthenticated initial state, nothing known about the server
	StateUnauthenticated State = iota
	// StateServiceDiscovered service content fetched, manager references known
	StateServiceDiscovered
	// StateAuthenticated login succeeded, session token attached to calls
	StateAuthenticated
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateServiceDiscovered:
		return "service-discovered"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Well-known names of the service endpoint references discovery stores
const (
	RefRootFolder        = "rootFolder"
	RefPropertyCollector = "propertyCollector"
	RefSessionManager    = "sessionManager"
	RefPerfManager       = "perfManager"
)

// Manager is the session state machine. A failed transition leaves the
// prior state in place; references never outlive the session that produced
// them.
type Manager struct {
	tr     transport.Transport
	schema *transcode.Schema
	logger *zap.Logger

	// state, refs and token are shared with every component issuing calls
	// through this session; mu serializes all access
	mu    sync.Mutex
	state State
	refs  map[string]common.ObjectRef
	token string
}

// NewManager creates a session manager in the unauthenticated state
func NewManager(tr transport.Transport, cfg *config.Config) *Manager {
	return &Manager{
		tr:     tr,
		schema: transcode.ResponseSchema(),
		logger: cfg.GetLogger(),
		state:  StateUnauthenticated,
		refs:   make(map[string]common.ObjectRef),
	}
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Ref returns a stored service endpoint reference by well-known name
func (m *Manager) Ref(name string) (common.ObjectRef, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.refs[name]
	return ref, ok
}

// RequireAuthenticated fails with a session error unless login has
// succeeded. It performs no network call.
func (m *Manager) RequireAuthenticated() error {
	if state := m.State(); state != StateAuthenticated {
		return fmt.Errorf("%w: operation requires an authenticated session (state: %s)", common.ErrSession, state)
	}
	return nil
}

// DiscoverService issues the fixed service discovery request and stores the
// property collector, performance manager, session manager and root folder
// references. On a malformed response the state is unchanged.
func (m *Manager) DiscoverService(ctx context.Context) error {
	resp, err := m.tr.Call(ctx, envelope.Build(envelope.ServiceContentRequest{}))
	if err != nil {
		return err
	}

	root, err := transcode.Decode(resp.Body, m.schema)
	if err != nil {
		return err
	}
	body := transcode.Unwrap(root, "RetrieveServiceContent")

	// returnval decodes as an array under the response schema; service
	// content is its single element
	returnvals := transcode.ArrayField(body, "returnval")
	if len(returnvals) == 0 {
		return fmt.Errorf("%w: service content response has no returnval", common.ErrProtocol)
	}
	content := returnvals[0]

	refs := make(map[string]common.ObjectRef, 4)
	for _, name := range []string{RefRootFolder, RefPropertyCollector, RefSessionManager, RefPerfManager} {
		ref, err := transcode.RefField(content, name)
		if err != nil {
			return err
		}
		refs[name] = ref
	}

	m.mu.Lock()
	m.refs = refs
	m.state = StateServiceDiscovered
	m.mu.Unlock()

	m.logger.Info("Service discovery completed",
		zap.String("root_folder", refs[RefRootFolder].Value),
		zap.String("property_collector", refs[RefPropertyCollector].Value),
		zap.String("perf_manager", refs[RefPerfManager].Value),
	)
	return nil
}

// Login authenticates the session. Discovery runs first when it has not
// happened yet. The session token comes from the response headers, not the
// body; a response without one fails with a session error and leaves the
// state unchanged.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required for login", common.ErrConfig)
	}

	if m.State() == StateUnauthenticated {
		if err := m.DiscoverService(ctx); err != nil {
			return fmt.Errorf("service discovery before login failed: %w", err)
		}
	}

	sessionManager, _ := m.Ref(RefSessionManager)
	resp, err := m.tr.Call(ctx, envelope.Build(envelope.LoginRequest{
		SessionManager: sessionManager,
		Username:       username,
		Password:       password,
	}))
	if err != nil {
		return err
	}

	token := resp.Headers.Get("Set-Cookie")
	if token == "" {
		return fmt.Errorf("%w: login response carried no session token", common.ErrSession)
	}

	if carrier, ok := m.tr.(transport.CookieCarrier); ok {
		carrier.SetSessionCookie(token)
	}
	m.mu.Lock()
	m.token = token
	m.state = StateAuthenticated
	m.mu.Unlock()

	m.logger.Info("Login completed", zap.String("username", username))
	return nil
}

// Token returns the opaque session token, empty before login
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}
