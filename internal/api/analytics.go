package api

import (
	"net/http"

	"github.com/redis/go-redis/v9"

	"redistics/internal/analytics"
	"redistics/internal/executor"
)

func (s *Server) serverInfo(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		info, err := analytics.GetInfo(r.Context(), rdb)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})
}

func (s *Server) capabilities(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		caps, err := analytics.GetCapabilities(r.Context(), rdb)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, caps)
	})
}

func (s *Server) clientList(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		clients, err := analytics.GetClientList(r.Context(), rdb)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"clients": clients})
	})
}

func (s *Server) advancedAnalytics(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		writeJSON(w, http.StatusOK, analytics.GetAdvancedAnalytics(r.Context(), rdb))
	})
}

func (s *Server) memoryAnalytics(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		writeJSON(w, http.StatusOK, analytics.GetMemoryReport(r.Context(), rdb))
	})
}

func (s *Server) latencyAnalytics(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		writeJSON(w, http.StatusOK, analytics.GetLatencyReport(r.Context(), rdb))
	})
}

func (s *Server) databaseAnalytics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SampleSize int `json:"sampleSize"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		analysis, err := analytics.AnalyzeDatabase(r.Context(), rdb, req.SampleSize)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	})
}

func (s *Server) clientAnalytics(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		analysis, err := analytics.AnalyzeClients(r.Context(), rdb)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	})
}
