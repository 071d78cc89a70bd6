package handlers

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

// StaticHandler serves the built dashboard UI. Unknown paths without a
// file extension get index.html so the UI router can resolve them.
type StaticHandler struct {
	root http.FileSystem
}

// NewStaticHandler creates a static file handler rooted at dir
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{root: http.Dir(dir)}
}

// ServeHTTP serves one UI asset or the index page
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if strings.HasPrefix(name, "/api/") || name == "/api" {
		http.NotFound(w, r)
		return
	}
	if name == "/" {
		name = "/index.html"
	}

	err := h.serveFile(w, r, name)
	if err == nil {
		return
	}
	if errors.Is(err, fs.ErrNotExist) && path.Ext(name) == "" {
		err = h.serveFile(w, r, "/index.html")
	}
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		http.NotFound(w, r)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *StaticHandler) serveFile(w http.ResponseWriter, r *http.Request, name string) error {
	f, err := h.root.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fs.ErrNotExist
	}

	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if name == "/index.html" {
		// the index references hashed bundles, so it must not go stale
		w.Header().Set("Cache-Control", "no-cache")
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}
