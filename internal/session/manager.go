package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/usestring/pmsinspect-mcp/internal/executor"
	"github.com/usestring/pmsinspect-mcp/internal/history"
	"github.com/usestring/pmsinspect-mcp/internal/logging"
	"github.com/usestring/pmsinspect-mcp/internal/mock"
	"github.com/usestring/pmsinspect-mcp/internal/schema"
	"github.com/usestring/pmsinspect-mcp/pkg/client"
	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// Mode selects between synthetic and live vendor data.
type Mode string

// Modes.
const (
	ModeMock Mode = "mock"
	ModeLive Mode = "live"
)

// ParseMode validates a mode name. Empty input selects ModeMock.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeMock, nil
	case ModeMock, ModeLive:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (valid: mock, live)", s)
	}
}

// ErrStale is returned when a connect or discovery finished after the
// platform was disconnected or reconnected.
var ErrStale = errors.New("platform connection changed while the operation was in flight")

// ClientFactory builds a vendor client for a validated token.
type ClientFactory func(p platform.Key, token string) *client.Client

// Options configures a Manager.
type Options struct {
	Mode               Mode
	DefaultPlatform    platform.Key
	DefaultEnvironment string
	// NewClient builds live clients. Defaults to client.New with no options.
	NewClient ClientFactory
	// Schema serves catalogs in mock mode. Defaults to the demo catalog.
	Schema schema.Provider
	// Cache, when set, is invalidated on disconnect and refresh.
	Cache *schema.Cached
	// History defaults to a log with history.DefaultLimit entries.
	History *history.Log
	// Mock defaults to mock.NewRunner().
	Mock *mock.Runner
	Now  func() time.Time
}

// State is a point-in-time copy of every session.
type State struct {
	Mode     Mode                     `json:"mode"`
	Selected platform.Key             `json:"selected"`
	Sessions map[platform.Key]Session `json:"sessions"`
}

// Manager is the single owner of the inspector's sessions and the live
// clients behind them. Every transition happens under one lock; network
// calls run outside it. Each connect or disconnect bumps the platform's
// generation so work started under an older generation is discarded.
type Manager struct {
	mode      Mode
	newClient ClientFactory
	provider  schema.Provider
	cache     *schema.Cached
	history   *history.Log
	now       func() time.Time

	// executors holds one cancel-and-replace executor per platform, so a
	// query only ever supersedes an earlier query on the same platform.
	executors map[platform.Key]*executor.Executor

	mu       sync.Mutex
	selected platform.Key
	sessions map[platform.Key]Session
	clients  map[platform.Key]*client.Client
	gens     map[platform.Key]uint64
}

// NewManager creates a manager with one disconnected session per platform.
func NewManager(opts Options) *Manager {
	if opts.Mode == "" {
		opts.Mode = ModeMock
	}
	if !opts.DefaultPlatform.Valid() {
		opts.DefaultPlatform = platform.DefaultPlatform
	}
	if opts.DefaultEnvironment == "" {
		opts.DefaultEnvironment = platform.DefaultEnvironment
	}
	if opts.NewClient == nil {
		opts.NewClient = func(p platform.Key, token string) *client.Client {
			return client.New(p, token)
		}
	}
	if opts.Schema == nil {
		opts.Schema = schema.NewStatic(schema.DemoCatalog())
	}
	if opts.History == nil {
		opts.History = history.New(history.DefaultLimit)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{
		mode:      opts.Mode,
		newClient: opts.NewClient,
		provider:  opts.Schema,
		cache:     opts.Cache,
		history:   opts.History,
		now:       opts.Now,
		selected:  opts.DefaultPlatform,
		sessions:  make(map[platform.Key]Session),
		clients:   make(map[platform.Key]*client.Client),
		gens:      make(map[platform.Key]uint64),
		executors: make(map[platform.Key]*executor.Executor),
	}

	for _, p := range platform.All() {
		s := New(p, "")
		if withEnv, err := s.SelectEnvironment(opts.DefaultEnvironment); err == nil {
			s = withEnv
		} else if cfg, ok := platform.Lookup(p); ok && len(cfg.Environments) > 0 {
			s.Environment = cfg.Environments[0]
		}
		m.sessions[p] = s
	}

	var runner executor.Runner
	if m.mode == ModeLive {
		runner = executor.Live(m.client)
	} else {
		mr := opts.Mock
		if mr == nil {
			mr = mock.NewRunner()
		}
		runner = executor.RequireConnection(m.connected, executor.Mock(mr))
	}
	for _, p := range platform.All() {
		m.executors[p] = executor.New(runner, opts.History)
	}

	return m
}

// Mode returns the manager's data mode.
func (m *Manager) Mode() Mode {
	return m.mode
}

// History returns the query attempt log.
func (m *Manager) History() *history.Log {
	return m.history
}

func (m *Manager) client(p platform.Key) *client.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients[p]
}

func (m *Manager) connected(p platform.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[p].Connected()
}

// Snapshot returns a copy of all sessions.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make(map[platform.Key]Session, len(m.sessions))
	for k, v := range m.sessions {
		sessions[k] = v
	}
	return State{Mode: m.mode, Selected: m.selected, Sessions: sessions}
}

// Selected returns the selected platform.
func (m *Manager) Selected() platform.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Session returns the session for p.
func (m *Manager) Session(p platform.Key) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[p]
	if !ok {
		return Session{}, unknownPlatform(p)
	}
	return s, nil
}

// Resolve maps an empty key to the selected platform.
func (m *Manager) Resolve(p platform.Key) platform.Key {
	if p == "" {
		return m.Selected()
	}
	return p
}

func unknownPlatform(p platform.Key) error {
	return validation("Unknown platform", string(p))
}

// update applies fn to p's session under the lock and commits the result
// when fn succeeds.
func (m *Manager) update(p platform.Key, fn func(Session) (Session, error)) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[p]
	if !ok {
		return Session{}, unknownPlatform(p)
	}
	next, err := fn(s)
	if err != nil {
		return s, err
	}
	m.sessions[p] = next
	return next, nil
}

// SelectPlatform switches the active platform. Switching to a different
// platform resets that platform's endpoint, filters and outcome.
func (m *Manager) SelectPlatform(p platform.Key) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[p]
	if !ok {
		return Session{}, unknownPlatform(p)
	}
	if p != m.selected {
		s = s.ResetWorkspace()
		m.sessions[p] = s
		m.selected = p
	}
	return s, nil
}

// SelectEnvironment switches p's environment.
func (m *Manager) SelectEnvironment(p platform.Key, env string) (Session, error) {
	return m.update(p, func(s Session) (Session, error) { return s.SelectEnvironment(env) })
}

// Connect authenticates p with token. In live mode the token is probed with
// a one-record request before the platform counts as connected; in mock mode
// local validation suffices. A successful connect runs discovery.
func (m *Manager) Connect(ctx context.Context, p platform.Key, token string) (Session, error) {
	token = strings.TrimSpace(token)

	m.mu.Lock()
	s, ok := m.sessions[p]
	if !ok {
		m.mu.Unlock()
		return Session{}, unknownPlatform(p)
	}
	next, err := s.Authenticate(token)
	if err != nil {
		// A rejected token never disturbs an existing connection.
		if !s.Connected() {
			m.sessions[p] = next
			s = next
		}
		m.mu.Unlock()
		return s, err
	}
	m.sessions[p] = next
	m.gens[p]++
	gen := m.gens[p]
	delete(m.clients, p)
	m.mu.Unlock()

	var c *client.Client
	if m.mode == ModeLive {
		c = m.newClient(p, token)
		if !c.TestConnection(ctx) {
			name := string(p)
			if cfg, ok := platform.Lookup(p); ok {
				name = cfg.Name
			}
			msg := fmt.Sprintf("Failed to connect to %s. Please check your token.", name)
			slog.Warn("connection probe failed", slog.String("platform", string(p)), slog.String("token", logging.Mask(token)))
			return m.commit(p, gen, func(s Session) Session { return s.MarkFailed(msg) }, &types.QueryError{
				Code:    types.CodeConnectionError,
				Message: msg,
				Details: "Connection test failed",
			})
		}
	}

	if _, err := m.commit(p, gen, func(s Session) Session {
		if c != nil {
			m.clients[p] = c
		}
		return s.MarkConnected(types.Timestamp(m.now()))
	}, nil); err != nil {
		return Session{}, err
	}

	slog.Info("platform connected",
		slog.String("platform", string(p)),
		slog.String("mode", string(m.mode)),
		slog.String("token", logging.Mask(token)),
	)

	if _, err := m.Discover(ctx, p, false); err != nil {
		slog.Warn("endpoint discovery failed",
			slog.String("platform", string(p)),
			slog.String("error", err.Error()),
		)
	}
	return m.Session(p)
}

// commit applies fn when p is still at generation gen, then returns
// resultErr. A stale generation yields ErrStale and leaves state untouched.
func (m *Manager) commit(p platform.Key, gen uint64, fn func(Session) Session, resultErr error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[p] != gen {
		return m.sessions[p], ErrStale
	}
	s := fn(m.sessions[p])
	m.sessions[p] = s
	return s, resultErr
}

// Disconnect drops p's client and clears its connection state. In-flight
// work for p started before the disconnect is discarded when it completes.
func (m *Manager) Disconnect(p platform.Key) (Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[p]
	if !ok {
		m.mu.Unlock()
		return Session{}, unknownPlatform(p)
	}
	m.gens[p]++
	delete(m.clients, p)
	s = s.Disconnect()
	m.sessions[p] = s
	m.mu.Unlock()

	if m.cache != nil {
		m.cache.Invalidate(p)
	}
	slog.Info("platform disconnected", slog.String("platform", string(p)))
	return s, nil
}

// Discover fetches p's endpoint schema and stores it. refresh bypasses the
// schema cache.
func (m *Manager) Discover(ctx context.Context, p platform.Key, refresh bool) (types.EndpointSchema, error) {
	m.mu.Lock()
	s, ok := m.sessions[p]
	if !ok {
		m.mu.Unlock()
		return nil, unknownPlatform(p)
	}
	if !s.Connected() {
		m.mu.Unlock()
		return nil, executor.NotConnectedError()
	}
	gen := m.gens[p]
	c := m.clients[p]
	m.mu.Unlock()

	if refresh && m.cache != nil {
		m.cache.Invalidate(p)
	}

	var (
		catalog types.EndpointSchema
		err     error
	)
	if c != nil {
		catalog, err = c.DiscoverEndpoints(ctx)
	} else {
		catalog, err = m.provider.Discover(ctx, p)
	}
	if err != nil {
		return nil, fmt.Errorf("discovering endpoints: %w", err)
	}

	s, err = m.commit(p, gen, func(s Session) Session { return s.SetSchema(catalog) }, nil)
	if err != nil {
		return nil, err
	}
	return s.Schema, nil
}

// SelectEndpoint switches p's endpoint.
func (m *Manager) SelectEndpoint(p platform.Key, path string) (Session, error) {
	return m.update(p, func(s Session) (Session, error) { return s.SelectEndpoint(path) })
}

// AddFilter activates a filter on p's endpoint.
func (m *Manager) AddFilter(p platform.Key, key string) (Session, error) {
	return m.update(p, func(s Session) (Session, error) { return s.AddFilter(key) })
}

// UpdateFilter sets an active filter's value.
func (m *Manager) UpdateFilter(p platform.Key, key, value string) (Session, error) {
	return m.update(p, func(s Session) (Session, error) { return s.UpdateFilter(key, value) })
}

// RemoveFilter deactivates a filter.
func (m *Manager) RemoveFilter(p platform.Key, key string) (Session, error) {
	return m.update(p, func(s Session) (Session, error) { return s.RemoveFilter(key) })
}

// SetQueryText replaces p's query text.
func (m *Manager) SetQueryText(p platform.Key, text string) (Session, error) {
	return m.update(p, func(s Session) (Session, error) { return s.SetQueryText(text), nil })
}

// SetQueryLocked locks or unlocks p's query text against filter edits.
func (m *Manager) SetQueryLocked(p platform.Key, locked bool) (Session, error) {
	return m.update(p, func(s Session) (Session, error) { return s.SetQueryLocked(locked), nil })
}

// ClearResults drops p's latest result and error.
func (m *Manager) ClearResults(p platform.Key) (Session, error) {
	return m.update(p, func(s Session) (Session, error) { return s.ClearResults(), nil })
}

// Execute runs p's current query. The outcome is written to the session
// unless a newer attempt superseded it or p was disconnected or reconnected
// meanwhile.
func (m *Manager) Execute(ctx context.Context, p platform.Key) (executor.Outcome, error) {
	m.mu.Lock()
	s, ok := m.sessions[p]
	if !ok {
		m.mu.Unlock()
		return executor.Outcome{}, unknownPlatform(p)
	}
	text := s.EffectiveQuery()
	if text == "" {
		m.mu.Unlock()
		return executor.Outcome{}, validation("Query text is empty", "Select an endpoint or set query text")
	}
	gen := m.gens[p]
	m.mu.Unlock()

	out := m.executors[p].Execute(ctx, executor.Attempt{
		QueryText: text,
		Platform:  p,
		Endpoint:  s.SelectedEndpoint,
	})
	if out.Superseded {
		return out, nil
	}

	_, err := m.commit(p, gen, func(s Session) Session {
		return s.SetQueryText(text).ApplyOutcome(out.Result, out.Error)
	}, nil)
	if errors.Is(err, ErrStale) {
		slog.Debug("discarding stale query outcome", slog.String("platform", string(p)))
		out.Superseded = true
		return out, nil
	}
	return out, err
}

// CancelQuery aborts p's query in flight, if any. Its outcome is discarded.
func (m *Manager) CancelQuery(p platform.Key) error {
	e, ok := m.executors[p]
	if !ok {
		return unknownPlatform(p)
	}
	e.Cancel()
	return nil
}

// CancelAll aborts the queries in flight on every platform.
func (m *Manager) CancelAll() {
	for _, e := range m.executors {
		e.Cancel()
	}
}
