package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// StaticHandler serves the built frontend from dir. Paths that do not name a
// file fall back to index.html so client-side routes resolve. ok is false
// when dir does not exist.
func StaticHandler(dir string) (handler http.Handler, ok bool) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, false
	}

	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}), true
}
