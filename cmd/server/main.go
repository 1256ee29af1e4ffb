package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/proqol/proscore/internal/api"
	"github.com/proqol/proscore/internal/db"
	"github.com/proqol/proscore/internal/middleware"
	"github.com/proqol/proscore/internal/utils"
)

func main() {
	addr := utils.SafeEnv("PROSCORE_ADDR", ":8080")
	commit := os.Getenv("PROSCORE_COMMIT")
	buildTime := os.Getenv("PROSCORE_BUILD_TIME")

	var store api.Store
	if dsn := os.Getenv("PROSCORE_DB"); dsn != "" {
		conn, err := sql.Open("sqlite3", dsn)
		if err != nil {
			log.Fatalf("open sqlite db: %v", err)
		}
		if err := db.RunMigrations(conn, os.Getenv("PROSCORE_MIGRATIONS_DIR")); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		store, err = db.NewStore(conn)
		if err != nil {
			log.Fatalf("init sqlite store: %v", err)
		}
		log.Printf("using sqlite store at %s", dsn)
	} else {
		store = api.NewMemoryStore()
		log.Printf("PROSCORE_DB not set, using in-memory store")
	}

	mux := http.NewServeMux()
	api.NewRouter(store).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "ProScore API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	handler := middleware.SecureHeaders(middleware.CORS(middleware.WithAuth(mux)))

	log.Printf("ProScore server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
