// Command ftl-admin is a minimal, read-only HTTP front end for an FTL's
// wear-state snapshot. Its HTTP handlers cannot issue host events; each
// request holds the FTL's lock only while Stats copies the counters. The
// demo FTL it serves is driven by a background synthetic write workload.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dd0wney/ftlsim/pkg/device"
	"github.com/dd0wney/ftlsim/pkg/ftl"
	"github.com/dd0wney/ftlsim/pkg/geometry"
)

var validate = validator.New()

// bearerClaims is the shape of the token ftl-admin accepts. Role is
// validated separately from signature verification so an expired or
// malformed claim set fails closed rather than defaulting to a role.
type bearerClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role" validate:"required,oneof=viewer admin"`
}

type server struct {
	secret []byte
	ftl    *ftl.FTL
}

func (s *server) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims := &bearerClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		if err := validate.Struct(claims); err != nil {
			http.Error(w, "invalid token claims", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.ftl.StatsSnapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(snapshot)
}

func (s *server) handleStatsJSON(w http.ResponseWriter, r *http.Request) {
	stats := s.ftl.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	secret := flag.String("secret", "", "HMAC secret for verifying bearer tokens (required)")
	flag.Parse()

	if *secret == "" {
		log.Fatal("ftl-admin: -secret is required")
	}

	geo, err := geometry.New(32, 1, 1, 1, 32, 200, 20)
	if err != nil {
		log.Fatalf("ftl-admin: %v", err)
	}
	dev := device.NewSimDevice(4096, geo.BlockSize)
	f := ftl.New(geo, dev, ftl.Options{PageSize: 4096})
	go seedWorkload(f, geo)

	s := &server{secret: []byte(*secret), ftl: f}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", s.requireBearer(s.handleStats))
	mux.HandleFunc("/stats.json", s.requireBearer(s.handleStatsJSON))

	log.Printf("ftl-admin: listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("ftl-admin: %v", err)
	}
}

// seedWorkload keeps the demo FTL's wear state moving so /stats has
// something to show without a live host attached.
func seedWorkload(f *ftl.FTL, geo *geometry.Geometry) {
	rng := rand.New(rand.NewSource(1))
	ctx := context.Background()
	for {
		ev := &ftl.Event{Type: ftl.EventWrite, Logical: rng.Uint64() % geo.Usable}
		_ = f.Translate(ctx, ev)
		time.Sleep(5 * time.Millisecond)
	}
}
