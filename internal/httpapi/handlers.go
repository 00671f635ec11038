package httpapi

import (
	"encoding/base64"
	"net/http"
	"time"

	goccyjson "github.com/goccy/go-json"

	"github.com/lirsacc/crible/internal/executor"
	"github.com/lirsacc/crible/internal/expr"
	"github.com/lirsacc/crible/internal/index"
	"github.com/lirsacc/crible/internal/metrics"
	"github.com/lirsacc/crible/internal/operations"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		goccyjson.NewEncoder(w).Encode(body)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := goccyjson.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// runRead dispatches fn through the executor under a read lock and writes
// either the resulting JSON body or the mapped error response.
func (s *Server) runRead(w http.ResponseWriter, r *http.Request, op string, fn func(*index.Index) (interface{}, error)) {
	start := time.Now()
	res, err := s.ex.Spawn(r.Context(), func(h *executor.IndexHandle) (any, error) {
		return h.Read(func(idx *index.Index) (any, error) { return fn(idx) })
	})
	metrics.ObserveOperation(op, time.Since(start).Seconds(), err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// runWrite dispatches fn through the executor under a write lock, flushes
// on success (flush-on-write policy, see SPEC_FULL.md §9), and maps the
// boolean "did anything change" result to 200/204 per spec.md §6.
func (s *Server) runWrite(w http.ResponseWriter, r *http.Request, op string, fn func(*index.Index) (bool, error)) {
	if s.ex.ReadOnly() {
		s.writeError(w, executor.ErrReadOnly)
		return
	}

	start := time.Now()
	changed, err := s.ex.Spawn(r.Context(), func(h *executor.IndexHandle) (any, error) {
		return h.Write(func(idx *index.Index) (any, error) {
			v, err := fn(idx)
			metrics.IndexProperties.Set(float64(idx.Len()))
			metrics.IndexRootCardinality.Set(float64(idx.Root().Cardinality()))
			return v, err
		})
	})
	metrics.ObserveOperation(op, time.Since(start).Seconds(), err)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.ex.Flush(r.Context()); err != nil {
		s.log.WithError(err).Warn("flush after mutation failed")
	}

	status := http.StatusNoContent
	if b, _ := changed.(bool); b {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

type queryPayload struct {
	Query                string `json:"query"`
	IncludeCardinalities bool   `json:"include_cardinalities"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var p queryPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runRead(w, r, "query", func(idx *index.Index) (interface{}, error) {
		res, err := (operations.Query{Expr: p.Query, IncludeCardinalities: p.IncludeCardinalities}).Run(idx)
		if err != nil {
			return nil, err
		}
		body := map[string]interface{}{"values": res.Values}
		if res.HasCardinalities {
			body["cardinalities"] = res.Cardinalities
		}
		return body, nil
	})
}

// handleQueryBitmap returns the base64-encoded portable Roaring
// representation of a query's result set, supplementing spec.md's HTTP
// surface sketch with the original's handler_bitmap.
func (s *Server) handleQueryBitmap(w http.ResponseWriter, r *http.Request) {
	var p queryPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runRead(w, r, "query_bitmap", func(idx *index.Index) (interface{}, error) {
		e, err := expr.Parse(p.Query)
		if err != nil {
			return nil, err
		}
		set, err := idx.Execute(e)
		if err != nil {
			return nil, err
		}
		bytes, err := set.Serialize()
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(bytes), nil
	})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	var p queryPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runRead(w, r, "count", func(idx *index.Index) (interface{}, error) {
		return (operations.Count{Expr: p.Query}).Run(idx)
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.runRead(w, r, "stats", func(idx *index.Index) (interface{}, error) {
		return (operations.Stats{}).Run(idx)
	})
}

type setPayload struct {
	Property string `json:"property"`
	Bit      uint32 `json:"bit"`
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	var p setPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runWrite(w, r, "set", func(idx *index.Index) (bool, error) {
		return (operations.Set{Property: p.Property, Bit: p.Bit}).Run(idx)
	})
}

func (s *Server) handleUnset(w http.ResponseWriter, r *http.Request) {
	var p setPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runWrite(w, r, "unset", func(idx *index.Index) (bool, error) {
		return (operations.Unset{Property: p.Property, Bit: p.Bit}).Run(idx)
	})
}

type manyPayload struct {
	Values map[string][]uint32 `json:"values"`
}

func (s *Server) handleSetMany(w http.ResponseWriter, r *http.Request) {
	var p manyPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runWrite(w, r, "set_many", func(idx *index.Index) (bool, error) {
		_, err := (operations.SetMany{Values: p.Values}).Run(idx)
		return true, err
	})
}

func (s *Server) handleUnsetMany(w http.ResponseWriter, r *http.Request) {
	var p manyPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runWrite(w, r, "unset_many", func(idx *index.Index) (bool, error) {
		_, err := (operations.UnsetMany{Values: p.Values}).Run(idx)
		return true, err
	})
}

type bitPayload struct {
	Bit uint32 `json:"bit"`
}

func (s *Server) handleGetBit(w http.ResponseWriter, r *http.Request) {
	var p bitPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runRead(w, r, "get_bit", func(idx *index.Index) (interface{}, error) {
		return (operations.GetBit{Bit: p.Bit}).Run(idx)
	})
}

type setBitPayload struct {
	Bit        uint32   `json:"bit"`
	Properties []string `json:"properties"`
}

func (s *Server) handleSetBit(w http.ResponseWriter, r *http.Request) {
	var p setBitPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runWrite(w, r, "set_bit", func(idx *index.Index) (bool, error) {
		return (operations.SetBit{Bit: p.Bit, Properties: p.Properties}).Run(idx)
	})
}

type deleteBitsPayload struct {
	Bits []uint32 `json:"bits"`
}

func (s *Server) handleDeleteBits(w http.ResponseWriter, r *http.Request) {
	var p deleteBitsPayload
	if !s.decodeBody(w, r, &p) {
		return
	}
	s.runWrite(w, r, "delete_bits", func(idx *index.Index) (bool, error) {
		_, err := (operations.DeleteBits{Bits: p.Bits}).Run(idx)
		return true, err
	})
}
