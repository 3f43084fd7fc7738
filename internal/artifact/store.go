package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inamate/orbitcam/internal/typeid"
)

var ErrNotFound = errors.New("artifact not found")

// Artifact describes a stored export file.
type Artifact struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store keeps exported files on disk under typeid names.
type Store struct {
	dir string // directory holding artifact files
}

// NewStore creates a store writing to dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes data and returns its descriptor. name is the download name;
// its extension is kept on the stored file.
func (s *Store) Save(name, contentType string, data []byte) (*Artifact, error) {
	id := typeid.NewExportID()
	filename := id + filepath.Ext(name)
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	return &Artifact{
		ID:          id,
		Name:        name,
		URL:         "/artifacts/" + filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Open returns the stored file for id.
func (s *Store) Open(id string) (*os.File, error) {
	if err := typeid.Validate(id, typeid.PrefixExport); err != nil {
		return nil, ErrNotFound
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, id+".*"))
	if err != nil || len(matches) == 0 {
		return nil, ErrNotFound
	}
	return os.Open(matches[0])
}

// Delete removes the file for id.
func (s *Store) Delete(id string) error {
	f, err := s.Open(id)
	if err != nil {
		return err
	}
	path := f.Name()
	f.Close()
	return os.Remove(path)
}

// Serve returns an http.Handler for /artifacts/{file}.
func (s *Store) Serve() http.Handler {
	fs := http.FileServer(http.Dir(s.dir))
	return http.StripPrefix("/artifacts/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		// Export ids are unique, so files never change
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("Content-Disposition", "attachment")
		fs.ServeHTTP(w, r)
	}))
}

// DeleteHandler handles DELETE /artifacts/{id}.
func (s *Store) DeleteHandler(id func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.Delete(id(r))
		switch {
		case errors.Is(err, ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		case err != nil:
			slog.Error("delete artifact", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
