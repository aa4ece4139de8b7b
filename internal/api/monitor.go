package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"redistics/internal/model"
)

func (s *Server) monitorStart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// The stream needs its own socket but only makes sense for a session
	// the caller already connected.
	if _, release, err := s.registry.Acquire(id); err != nil {
		writeError(w, err)
		return
	} else {
		release()
	}

	profile, password, err := s.registry.Credentials(id)
	if err != nil {
		writeError(w, err)
		return
	}

	ms := s.monitorSession(id)
	sinks := []model.EventSink{ms.ring, ms.agg}
	if s.relay != nil {
		sinks = append(sinks, s.relay.Sink(id))
	}
	if err := s.engine.Start(profile, password, sinks...); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": s.engine.State(id)})
}

func (s *Server) monitorStop(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.engine.Stop(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": s.engine.State(id)})
}

func (s *Server) monitorEvents(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ms := s.monitorSession(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events":       ms.ring.Events(),
		"state":        s.engine.State(id),
		"droppedLines": s.engine.Dropped(id),
		"lastError":    s.engine.LastError(id),
	})
}

func (s *Server) monitorIPStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ms := s.monitorSession(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats": ms.agg.Snapshot(),
		"state": s.engine.State(id),
	})
}

func (s *Server) monitorClearIPStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ms := s.monitorSession(id)
	ms.agg.Clear()
	ms.ring.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"cleared": id})
}
