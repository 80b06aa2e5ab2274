package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"p9e.in/plotdesk/config"
	"p9e.in/plotdesk/handlers"
	"p9e.in/plotdesk/middleware"
	"p9e.in/plotdesk/pkg/backing"
	"p9e.in/plotdesk/pkg/geocode"
	"p9e.in/plotdesk/pkg/inventory"
	"p9e.in/plotdesk/pkg/session"
	"p9e.in/plotdesk/routes"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {

	versionFlag := flag.Bool("version", false, "Print version info and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "plotdesk")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()
	if !cfg.DotEnv {
		log.Info("no .env file found, using environment only")
	}

	ctx := context.Background()
	backend, closeBackend, err := backing.Open(ctx, cfg)
	if err != nil {
		log.Fatal("could not open backing store", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer closeBackend()

	sessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		log.Fatal("could not open session store", zap.String("store", cfg.SessionStore), zap.Error(err))
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("JWT_SECRET not set, using a random secret; sessions will not survive a restart")
	}
	tokens := middleware.NewTokens(secret, cfg.SessionTTL)

	h := &handlers.Handler{
		Store:     inventory.NewStore(backend, log),
		Gate:      session.NewGate(cfg.AdminUsername, cfg.AdminPassword),
		Sessions:  sessions,
		Tokens:    tokens,
		Geocoder:  geocode.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.HTTPTimeout, log.Named("geocode")),
		Phone:     cfg.WhatsAppPhone,
		SheetName: cfg.SheetName,
		MapCenter: handlers.DefaultMapCenter,
		Log:       log,
	}
	resolver := &middleware.Sessions{Tokens: tokens, Store: sessions, Log: log}

	handler := routes.RegisterRoutes(h, resolver, log)
	handlerWithCORS := enableCORS(handler)
	log.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("backend", backend.Name()),
		zap.String("version", Version))
	if err := http.ListenAndServe(":"+cfg.Port, handlerWithCORS); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func openSessionStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	if cfg.SessionStore == "redis" {
		client, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(client, cfg.SessionTTL), nil
	}
	return session.NewMemoryStore(cfg.SessionTTL), nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Required CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")

		// Handle preflight (OPTIONS)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
