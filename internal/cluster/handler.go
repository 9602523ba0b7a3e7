package cluster

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/dreamware/maptree/internal/storage"
)

var errBadQuery = errors.New("bad query parameter")

// maxBodyBytes caps request bodies accepted by the node
const maxBodyBytes = 32 << 20

// NewNodeHandler serves backend b over the storage node protocol. status
// is called for GET /info.
func NewNodeHandler(b storage.Backend, status func() NodeStatus) http.Handler {
	h := &nodeHandler{backend: b, status: status}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /info", h.handleInfo)
	mux.HandleFunc("PUT /doc/{key}", h.handleSetDocument)
	mux.HandleFunc("GET /doc/{key}", h.handleGetDocument)
	mux.HandleFunc("PUT /hash/{key}", h.handleHashPut)
	mux.HandleFunc("GET /hash/{key}", h.handleHashGet)
	mux.HandleFunc("POST /list/{key}", h.handleListPush)
	mux.HandleFunc("GET /list/{key}", h.handleListRange)
	mux.HandleFunc("GET /type/{key}", h.handleType)
	mux.HandleFunc("DELETE /keys/{key}", h.handleDelete)
	return mux
}

type nodeHandler struct {
	backend storage.Backend
	status  func() NodeStatus
}

func (h *nodeHandler) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *nodeHandler) handleSetDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if err := h.backend.SetDocument(r.Context(), r.PathValue("key"), docPath(r), body); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *nodeHandler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	raw, err := h.backend.GetDocument(r.Context(), r.PathValue("key"), docPath(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func docPath(r *http.Request) string {
	if p := r.URL.Query().Get("path"); p != "" {
		return p
	}
	return "$"
}

func (h *nodeHandler) handleHashPut(w http.ResponseWriter, r *http.Request) {
	var req HashRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := h.backend.HashPutAll(r.Context(), r.PathValue("key"), req.Fields); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *nodeHandler) handleHashGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	q := r.URL.Query()
	if q.Has("field") {
		v, err := h.backend.HashGet(r.Context(), key, q.Get("field"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, HashFieldResponse{Value: v})
		return
	}

	fields, err := h.backend.HashGetAll(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HashResponse{Fields: fields})
}

func (h *nodeHandler) handleListPush(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := h.backend.ListPushAll(r.Context(), r.PathValue("key"), req.Items); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *nodeHandler) handleListRange(w http.ResponseWriter, r *http.Request) {
	start, err := intParam(r, "start", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := intParam(r, "end", -1)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.backend.ListRange(r.Context(), r.PathValue("key"), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []string{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Items: items})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadQuery, name, v)
	}
	return n, nil
}

func (h *nodeHandler) handleType(w http.ResponseWriter, r *http.Request) {
	typ, err := h.backend.TypeOf(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TypeResponse{Type: typ})
}

func (h *nodeHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.backend.Delete(r.Context(), key); err != nil {
		log.Printf("node: delete %q failed: %v", key, err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
