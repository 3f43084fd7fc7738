package store

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/orbitcam/internal/auth"
	"github.com/inamate/orbitcam/internal/snapshot"
)

const maxBodySize = 1 << 20

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type createRequest struct {
	Name     string          `json:"name"`
	Snapshot json.RawMessage `json:"snapshot"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.SubjectFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	snap, err := snapshot.Decode(req.Snapshot)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rec, err := h.store.Create(r.Context(), req.Name, ownerID, snap)
	if err != nil {
		slog.Error("create snapshot failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.SubjectFromContext(r.Context())
	id := mux.Vars(r)["snapshotId"]

	rec, err := h.store.Get(r.Context(), id, ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// Download returns only the configuration document, as a file.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.SubjectFromContext(r.Context())
	id := mux.Vars(r)["snapshotId"]

	rec, err := h.store.Get(r.Context(), id, ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	doc, err := snapshot.Encode(rec.Snapshot)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snapshot.FileName(rec.CreatedAt)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.SubjectFromContext(r.Context())

	records, err := h.store.List(r.Context(), ownerID)
	if err != nil {
		slog.Error("list snapshots failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if records == nil {
		records = []Record{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.SubjectFromContext(r.Context())
	id := mux.Vars(r)["snapshotId"]

	if err := h.store.Delete(r.Context(), id, ownerID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Routes mounts the handler on r, which is expected to be the /api subrouter.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/snapshots", h.List).Methods("GET")
	r.HandleFunc("/snapshots", h.Create).Methods("POST")
	r.HandleFunc("/snapshots/{snapshotId}", h.Get).Methods("GET")
	r.HandleFunc("/snapshots/{snapshotId}/document", h.Download).Methods("GET")
	r.HandleFunc("/snapshots/{snapshotId}", h.Delete).Methods("DELETE")
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
