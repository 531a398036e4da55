// Command pongmesh-signal runs the WebSocket signaling server that pairs
// players and relays their SDP offers/answers and ICE candidates. It never
// sees game traffic: once a data channel opens, peers talk to each other
// directly. Structure (env-driven port/CORS/health endpoint) is grounded on
// server/cmd/signaling/main.go.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/holloway-fold/pongmesh/internal/signaling"
)

func main() {
	port := getEnvInt("PORT", 8080)

	hub := signaling.NewHub()
	server := signaling.NewServer(hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/", server)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("pongmesh signaling server listening on %s", addr)
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil {
		log.Fatalf("signaling server failed: %v", err)
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
