package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"redistics/internal/model"
)

func (s *Server) listServers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"servers":  s.registry.List(),
		"sessions": s.registry.Sessions(),
	})
}

func (s *Server) saveServers(w http.ResponseWriter, r *http.Request) {
	var profiles []model.Profile
	if err := decodeBody(r, &profiles); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.registry.Save(profiles); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"servers": s.registry.List()})
}

func (s *Server) addServer(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if err := decodeBody(r, &p); err != nil {
		writeBadRequest(w, err)
		return
	}
	saved, err := s.registry.AddProfile(p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) updateServer(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if err := decodeBody(r, &p); err != nil {
		writeBadRequest(w, err)
		return
	}
	p.ID = mux.Vars(r)["id"]
	if err := s.registry.UpdateProfile(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) removeServer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.registry.RemoveProfile(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	state, err := s.registry.Connect(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.registry.Profile(id); err != nil {
		writeError(w, err)
		return
	}
	s.registry.Disconnect(id)
	writeJSON(w, http.StatusOK, model.SessionState{ProfileID: id})
}

func (s *Server) encrypt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	out, err := s.vault.Encrypt(req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}

func (s *Server) decrypt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	out, err := s.vault.Decrypt(req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}
