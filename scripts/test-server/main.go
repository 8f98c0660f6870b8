// Command test-server is a minimal target site for local swarm runs. It
// serves the index page and accepts login and logout form posts.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8089", "Listen address")
	username := flag.String("username", "", "Accepted login username (empty accepts any)")
	password := flag.String("password", "", "Accepted login password")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h1>swarm test site</h1></body></html>")
	})

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if *username != "" && (r.PostForm.Get("username") != *username || r.PostForm.Get("password") != *password) {
			logger.Info("login rejected", zap.String("username", r.PostForm.Get("username")))
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	})

	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "healthy")
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	logger.Info("starting test server", zap.String("addr", *addr))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
