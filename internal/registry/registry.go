// Package registry owns the saved server profiles and their live sessions.
// Profiles persist to servers.yaml in the data dir; passwords in the file
// are vault envelopes, never plaintext.
package registry

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"redistics/internal/model"
	"redistics/internal/vault"
)

const profileFile = "servers.yaml"

// session is the live connection state for one profile. mu serializes use
// of the primary connection; sessions for distinct profiles never contend.
type session struct {
	mu         sync.Mutex
	client     *redis.Client
	connected  bool
	connecting bool
	lastErr    string
}

// Registry maps profile ids to saved configurations and live sessions.
type Registry struct {
	mu       sync.RWMutex
	path     string
	vault    *vault.Vault
	timeout  time.Duration
	profiles []model.Profile
	sessions map[string]*session

	// set by the wiring layer so disconnect can tear down a running
	// monitor stream without importing the engine.
	monitorActive func(id string) bool
	monitorStop   func(id string)
}

// New loads the persisted profile list, if any, from dataDir.
func New(dataDir string, v *vault.Vault, timeout time.Duration) (*Registry, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &Registry{
		path:     filepath.Join(dataDir, profileFile),
		vault:    v,
		timeout:  timeout,
		sessions: make(map[string]*session),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// SetMonitorHooks wires the monitor engine's lifecycle into disconnects.
func (r *Registry) SetMonitorHooks(active func(id string) bool, stop func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monitorActive = active
	r.monitorStop = stop
}

func (r *Registry) load() error {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	var profiles []model.Profile
	if err := yaml.Unmarshal(raw, &profiles); err != nil {
		return fmt.Errorf("failed to parse %s: %w", r.path, err)
	}
	r.profiles = profiles
	return nil
}

// persist writes the profile list. Caller holds r.mu.
func (r *Registry) persist() error {
	raw, err := yaml.Marshal(r.profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if err := os.WriteFile(r.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.path, err)
	}
	return nil
}

// List returns the saved profiles in file order.
func (r *Registry) List() []model.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Save replaces the whole profile set. Password fields are stored as given;
// callers encrypt before saving. Sessions for ids that vanish are torn down.
func (r *Registry) Save(profiles []model.Profile) error {
	r.mu.Lock()
	kept := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		kept[p.ID] = true
	}
	var dropped []string
	for id := range r.sessions {
		if !kept[id] {
			dropped = append(dropped, id)
		}
	}
	r.profiles = make([]model.Profile, len(profiles))
	copy(r.profiles, profiles)
	err := r.persist()
	r.mu.Unlock()

	for _, id := range dropped {
		r.Disconnect(id)
	}
	return err
}

// AddProfile stores a new profile, assigning an id and sealing the password.
func (r *Registry) AddProfile(p model.Profile) (model.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Password != "" {
		enc, err := r.vault.Encrypt(p.Password)
		if err != nil {
			return model.Profile{}, fmt.Errorf("failed to seal password: %w", err)
		}
		p.Password = enc
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = append(r.profiles, p)
	if err := r.persist(); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// UpdateProfile replaces a saved profile in place.
func (r *Registry) UpdateProfile(p model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.profiles {
		if r.profiles[i].ID == p.ID {
			r.profiles[i] = p
			return r.persist()
		}
	}
	return model.ErrProfileNotFound
}

// RemoveProfile disconnects and deletes a profile.
func (r *Registry) RemoveProfile(id string) error {
	r.Disconnect(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.profiles {
		if r.profiles[i].ID == id {
			r.profiles = append(r.profiles[:i], r.profiles[i+1:]...)
			delete(r.sessions, id)
			return r.persist()
		}
	}
	return model.ErrProfileNotFound
}

// Profile returns one saved profile.
func (r *Registry) Profile(id string) (model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Profile{}, model.ErrProfileNotFound
}

// Credentials returns a profile together with its resolved plaintext
// password, applying the same corrupt-envelope fallback as Connect. Used
// for side channels like the monitor handshake that cannot share the
// primary connection.
func (r *Registry) Credentials(id string) (model.Profile, string, error) {
	profile, err := r.Profile(id)
	if err != nil {
		return model.Profile{}, "", err
	}
	password := profile.Password
	if password != "" {
		plain, err := r.vault.Decrypt(password)
		switch {
		case err == nil:
			password = plain
		case errors.Is(err, model.ErrCorruptCredential):
			log.Printf("registry: profile %s: stored password did not decrypt, using it as plaintext", id)
		default:
			return model.Profile{}, "", err
		}
	}
	return profile, password, nil
}

// Connect establishes the primary connection for a profile. A second
// connect while one is in flight gets ErrConnectInFlight; connecting an
// already-connected session is a no-op reporting the current state.
func (r *Registry) Connect(ctx context.Context, id string) (model.SessionState, error) {
	profile, err := r.Profile(id)
	if err != nil {
		return model.SessionState{}, err
	}

	r.mu.Lock()
	s := r.sessions[id]
	if s == nil {
		s = &session{}
		r.sessions[id] = s
	}
	r.mu.Unlock()

	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return r.state(id), nil
	}
	if s.connecting {
		s.mu.Unlock()
		return model.SessionState{}, model.ErrConnectInFlight
	}
	s.connecting = true
	s.mu.Unlock()

	var client *redis.Client
	_, password, dialErr := r.Credentials(id)
	if dialErr == nil {
		client, dialErr = r.dial(ctx, profile, password)
	}

	s.mu.Lock()
	s.connecting = false
	if dialErr != nil {
		s.connected = false
		s.lastErr = dialErr.Error()
	} else {
		s.client = client
		s.connected = true
		s.lastErr = ""
	}
	s.mu.Unlock()

	return r.state(id), nil
}

func (r *Registry) dial(ctx context.Context, profile model.Profile, password string) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     profile.Addr(),
		Username: profile.Username,
		Password: password,
		DB:       profile.DB,
	}
	if profile.TLS {
		opts.TLSConfig = &tls.Config{ServerName: profile.Host}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping %s failed: %w", profile.Addr(), err)
	}
	return client, nil
}

// Disconnect tears down a session. Safe to call repeatedly and for ids
// that never connected; any running monitor stream stops first.
func (r *Registry) Disconnect(id string) {
	r.mu.RLock()
	s := r.sessions[id]
	stop := r.monitorStop
	r.mu.RUnlock()

	if stop != nil {
		stop(id)
	}
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("registry: close %s: %v", id, err)
		}
		s.client = nil
	}
	s.connected = false
}

// Acquire returns the profile's live client with its session lock held.
// The release func must be called when the caller is done with the client.
func (r *Registry) Acquire(id string) (*redis.Client, func(), error) {
	if _, err := r.Profile(id); err != nil {
		return nil, nil, err
	}
	r.mu.RLock()
	s := r.sessions[id]
	r.mu.RUnlock()
	if s == nil {
		return nil, nil, model.ErrNotConnected
	}

	s.mu.Lock()
	if !s.connected || s.client == nil {
		s.mu.Unlock()
		return nil, nil, model.ErrNotConnected
	}
	return s.client, s.mu.Unlock, nil
}

// state reports one session. Caller must not hold the session lock.
func (r *Registry) state(id string) model.SessionState {
	st := model.SessionState{ProfileID: id}

	r.mu.RLock()
	s := r.sessions[id]
	active := r.monitorActive
	r.mu.RUnlock()

	if s != nil {
		s.mu.Lock()
		st.Connected = s.connected
		st.LastError = s.lastErr
		s.mu.Unlock()
	}
	if active != nil {
		st.Monitoring = active(id)
	}
	return st
}

// Sessions reports the state of every saved profile.
func (r *Registry) Sessions() []model.SessionState {
	ids := make([]string, 0)
	r.mu.RLock()
	for _, p := range r.profiles {
		ids = append(ids, p.ID)
	}
	r.mu.RUnlock()

	out := make([]model.SessionState, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.state(id))
	}
	return out
}

// Close disconnects every session.
func (r *Registry) Close() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	for _, id := range ids {
		r.Disconnect(id)
	}
}
