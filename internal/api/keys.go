package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"redistics/internal/codec"
	"redistics/internal/executor"
	"redistics/internal/safety"
)

// withClient runs fn while holding the profile's session lock.
func (s *Server) withClient(w http.ResponseWriter, r *http.Request, fn func(rdb *redis.Client, ex *executor.Executor)) {
	id := mux.Vars(r)["id"]
	client, release, err := s.registry.Acquire(id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()
	fn(client, executor.New(client, s.timeout))
}

func (s *Server) scanKeys(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		q := r.URL.Query()
		pattern := q.Get("pattern")
		cursor := q.Get("cursor")
		if cursor == "" {
			cursor = "0"
		}
		count := int64(100)
		if raw := q.Get("count"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n <= 0 {
				writeBadRequest(w, fmt.Errorf("bad count %q", raw))
				return
			}
			count = n
		}
		page, err := ex.ScanKeys(r.Context(), pattern, cursor, count)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	})
}

func (s *Server) readKey(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		key := r.URL.Query().Get("key")
		if key == "" {
			writeBadRequest(w, fmt.Errorf("missing key parameter"))
			return
		}
		kv, err := codec.ReadKey(r.Context(), rdb, key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, kv)
	})
}

func (s *Server) deleteKey(w http.ResponseWriter, r *http.Request) {
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		key := r.URL.Query().Get("key")
		if key == "" {
			writeBadRequest(w, fmt.Errorf("missing key parameter"))
			return
		}
		if err := ex.DeleteKey(r.Context(), key); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": key})
	})
}

func (s *Server) keyString(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key        string `json:"key"`
		Value      string `json:"value"`
		TTLSeconds int64  `json:"ttlSeconds"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		if err := ex.SetString(r.Context(), req.Key, req.Value, req.TTLSeconds); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": req.Key})
	})
}

func (s *Server) keyTTL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key        string `json:"key"`
		TTLSeconds int64  `json:"ttlSeconds"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		if err := ex.SetKeyTTL(r.Context(), req.Key, req.TTLSeconds); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": req.Key})
	})
}

func (s *Server) keyHash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key    string `json:"key"`
		Field  string `json:"field"`
		Value  string `json:"value"`
		Delete bool   `json:"delete"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		var err error
		if req.Delete {
			err = ex.HashDelete(r.Context(), req.Key, req.Field)
		} else {
			err = ex.HashSet(r.Context(), req.Key, req.Field, req.Value)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": req.Key, "field": req.Field})
	})
}

func (s *Server) keyList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key         string `json:"key"`
		Value       string `json:"value"`
		Left        bool   `json:"left"`
		RemoveIndex *int64 `json:"removeIndex"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		var err error
		if req.RemoveIndex != nil {
			err = ex.ListRemove(r.Context(), req.Key, *req.RemoveIndex)
		} else {
			err = ex.ListPush(r.Context(), req.Key, req.Value, req.Left)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": req.Key})
	})
}

func (s *Server) keySet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key    string `json:"key"`
		Member string `json:"member"`
		Remove bool   `json:"remove"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		var err error
		if req.Remove {
			err = ex.SetRemove(r.Context(), req.Key, req.Member)
		} else {
			err = ex.SetAdd(r.Context(), req.Key, req.Member)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": req.Key})
	})
}

func (s *Server) keyZSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key    string  `json:"key"`
		Member string  `json:"member"`
		Score  float64 `json:"score"`
		Remove bool    `json:"remove"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		var err error
		if req.Remove {
			err = ex.ZSetRemove(r.Context(), req.Key, req.Member)
		} else {
			err = ex.ZSetAdd(r.Context(), req.Key, req.Member, req.Score)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": req.Key})
	})
}

func (s *Server) keyRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key    string `json:"key"`
		NewKey string `json:"newKey"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		if err := ex.RenameKey(r.Context(), req.Key, req.NewKey); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": req.NewKey})
	})
}

func (s *Server) keyCopy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key         string `json:"key"`
		Destination string `json:"destination"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		if err := ex.CopyKey(r.Context(), req.Key, req.Destination); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": req.Destination})
	})
}

func (s *Server) runCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		writeJSON(w, http.StatusOK, ex.Execute(r.Context(), req.Command))
	})
}

func (s *Server) assessImpact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operation string `json:"operation"`
		Pattern   string `json:"pattern"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		writeJSON(w, http.StatusOK, safety.Assess(r.Context(), rdb, req.Operation, req.Pattern))
	})
}

func (s *Server) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern string `json:"pattern"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.withClient(w, r, func(rdb *redis.Client, ex *executor.Executor) {
		result, err := ex.BulkDelete(r.Context(), req.Pattern)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})
}
