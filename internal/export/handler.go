package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/inamate/orbitcam/internal/artifact"
	"github.com/inamate/orbitcam/internal/snapshot"
)

const maxSnapshotSize = 1 << 20 // 1MB

type Handler struct {
	service   *Service
	artifacts *artifact.Store // nil disables storing exports
}

func NewHandler(service *Service, artifacts *artifact.Store) *Handler {
	return &Handler{service: service, artifacts: artifacts}
}

// Export handles POST /export. The body is a configuration snapshot in JSON
// or YAML; the response is the rendered file. With ?store=true the file is
// also kept as an artifact and its descriptor is returned instead.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request too large"})
		return
	}

	snap, err := snapshot.Decode(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := h.service.Run(r.Context(), snap)
	if err != nil {
		if IsClientError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if errors.Is(err, r.Context().Err()) {
			slog.Info("export canceled", "error", err)
			return
		}
		slog.Error("export failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("encoding failed: %v", err)})
		return
	}

	if store, _ := strconv.ParseBool(r.URL.Query().Get("store")); store {
		if h.artifacts == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "artifact storage disabled"})
			return
		}
		a, err := h.artifacts.Save(res.Name, res.ContentType, res.Data)
		if err != nil {
			slog.Error("store export", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusCreated, a)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Write(res.Data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
