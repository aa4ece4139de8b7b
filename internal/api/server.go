// Package api exposes the service over HTTP. All bodies are JSON; errors
// come back as {"error": "..."} with a matching status code.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"redistics/internal/analytics"
	"redistics/internal/model"
	"redistics/internal/monitor"
	"redistics/internal/registry"
	"redistics/internal/relay"
	"redistics/internal/vault"
)

// Server wires the HTTP surface to the domain components.
type Server struct {
	registry *registry.Registry
	vault    *vault.Vault
	engine   *monitor.Engine
	relay    *relay.Publisher // nil when the relay is disabled
	timeout  time.Duration

	replayWindow int

	mu       sync.Mutex
	monState map[string]*monitorState
}

// monitorState is the per-server view of the monitor feed: the replay ring
// and the IP aggregator survive stream restarts and are discarded only on
// an explicit clear.
type monitorState struct {
	agg  *analytics.IPAggregator
	ring *monitor.Ring
}

// NewServer builds the API layer. relayPub may be nil.
func NewServer(reg *registry.Registry, v *vault.Vault, engine *monitor.Engine, relayPub *relay.Publisher, timeout time.Duration, replayWindow int) *Server {
	return &Server{
		registry:     reg,
		vault:        v,
		engine:       engine,
		relay:        relayPub,
		timeout:      timeout,
		replayWindow: replayWindow,
		monState:     make(map[string]*monitorState),
	}
}

// Router registers every route.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/servers", s.listServers).Methods("GET")
	v1.HandleFunc("/servers", s.saveServers).Methods("PUT")
	v1.HandleFunc("/servers", s.addServer).Methods("POST")
	v1.HandleFunc("/servers/{id}", s.updateServer).Methods("PUT")
	v1.HandleFunc("/servers/{id}", s.removeServer).Methods("DELETE")
	v1.HandleFunc("/servers/{id}/connect", s.connect).Methods("POST")
	v1.HandleFunc("/servers/{id}/disconnect", s.disconnect).Methods("POST")

	v1.HandleFunc("/servers/{id}/info", s.serverInfo).Methods("GET")
	v1.HandleFunc("/servers/{id}/capabilities", s.capabilities).Methods("GET")
	v1.HandleFunc("/servers/{id}/clients", s.clientList).Methods("GET")

	v1.HandleFunc("/servers/{id}/keys", s.scanKeys).Methods("GET")
	v1.HandleFunc("/servers/{id}/key", s.readKey).Methods("GET")
	v1.HandleFunc("/servers/{id}/key", s.deleteKey).Methods("DELETE")
	v1.HandleFunc("/servers/{id}/key/string", s.keyString).Methods("POST")
	v1.HandleFunc("/servers/{id}/key/ttl", s.keyTTL).Methods("POST")
	v1.HandleFunc("/servers/{id}/key/hash", s.keyHash).Methods("POST")
	v1.HandleFunc("/servers/{id}/key/list", s.keyList).Methods("POST")
	v1.HandleFunc("/servers/{id}/key/set", s.keySet).Methods("POST")
	v1.HandleFunc("/servers/{id}/key/zset", s.keyZSet).Methods("POST")
	v1.HandleFunc("/servers/{id}/key/rename", s.keyRename).Methods("POST")
	v1.HandleFunc("/servers/{id}/key/copy", s.keyCopy).Methods("POST")

	v1.HandleFunc("/servers/{id}/command", s.runCommand).Methods("POST")
	v1.HandleFunc("/servers/{id}/impact", s.assessImpact).Methods("POST")
	v1.HandleFunc("/servers/{id}/bulk-delete", s.bulkDelete).Methods("POST")

	v1.HandleFunc("/servers/{id}/monitor/start", s.monitorStart).Methods("POST")
	v1.HandleFunc("/servers/{id}/monitor/stop", s.monitorStop).Methods("POST")
	v1.HandleFunc("/servers/{id}/monitor/events", s.monitorEvents).Methods("GET")
	v1.HandleFunc("/servers/{id}/monitor/ipstats", s.monitorIPStats).Methods("GET")
	v1.HandleFunc("/servers/{id}/monitor/ipstats", s.monitorClearIPStats).Methods("DELETE")

	v1.HandleFunc("/servers/{id}/analytics/advanced", s.advancedAnalytics).Methods("GET")
	v1.HandleFunc("/servers/{id}/analytics/memory", s.memoryAnalytics).Methods("GET")
	v1.HandleFunc("/servers/{id}/analytics/latency", s.latencyAnalytics).Methods("GET")
	v1.HandleFunc("/servers/{id}/analytics/database", s.databaseAnalytics).Methods("POST")
	v1.HandleFunc("/servers/{id}/analytics/clients", s.clientAnalytics).Methods("GET")

	v1.HandleFunc("/crypto/encrypt", s.encrypt).Methods("POST")
	v1.HandleFunc("/crypto/decrypt", s.decrypt).Methods("POST")

	return r
}

// monitorSession returns, creating if needed, the per-server monitor state.
func (s *Server) monitorSession(id string) *monitorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.monState[id]
	if ms == nil {
		ms = &monitorState{
			agg:  analytics.NewIPAggregator(),
			ring: monitor.NewRing(s.replayWindow),
		}
		s.monState[id] = ms
	}
	return ms
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var mismatch *model.TypeMismatchError
	switch {
	case errors.Is(err, model.ErrProfileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrNotConnected),
		errors.Is(err, model.ErrConnectInFlight),
		errors.Is(err, model.ErrMonitorActive),
		errors.Is(err, model.ErrMonitorInactive):
		status = http.StatusConflict
	case errors.Is(err, model.ErrCorruptCredential):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &mismatch):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
