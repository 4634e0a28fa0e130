package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/wepay/signer-go/internal/logger"
	"github.com/wepay/signer-go/signer"
)

func main() {
	cfg := loadConfig()

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Log.Sync() }()

	manager, err := signer.NewManagerWithOptions(signer.ManagerOptions{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		SelfKey:        cfg.SelfKey,
		SignatureParam: cfg.SignatureParam,
		RedisAddr:      cfg.RedisAddr,
		MinTTL:         10 * time.Second,
		MaxTTL:         30 * time.Minute,
		RateLimit:      cfg.RateLimit,
		RateWindow:     time.Minute,
	})
	if err != nil {
		logger.Log.Fatal("init manager", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(logger.RequestLogger)
	r.Group(func(api chi.Router) {
		api.With(jwtAuth(cfg.JWTSecret, cfg.ClientID)).Post("/sign", handleSign(manager, cfg.DefaultTTL))
	})
	r.Post("/verify", handleVerify(manager))

	addr := ":" + strconv.Itoa(cfg.Port)
	logger.Log.Info("listening",
		zap.String("addr", addr),
		zap.Bool("redis", cfg.RedisAddr != ""),
	)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal("server error", zap.Error(err))
	}
}

type signRequest struct {
	Payload map[string]any `json:"payload"`
	TTL     int64          `json:"ttl_seconds"`
}

type signResponse struct {
	TokenID   string    `json:"token_id"`
	Query     string    `json:"query"`
	ExpiresAt time.Time `json:"expires_at"`
}

func handleSign(manager *signer.Manager, defaultTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		ttl := defaultTTL
		if req.TTL > 0 {
			ttl = time.Duration(req.TTL) * time.Second
		}

		token, query, err := manager.Issue(r.Context(), req.Payload, ttl)
		if err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		writeJSON(w, http.StatusOK, signResponse{
			TokenID:   token.ID.String(),
			Query:     query,
			ExpiresAt: token.ExpiresAt,
		})
	}
}

type verifyRequest struct {
	Payload   map[string]any `json:"payload"`
	Signature string         `json:"signature"`
}

type verifyResponse struct {
	Valid     bool      `json:"valid"`
	TokenID   string    `json:"token_id"`
	ClientID  string    `json:"client_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func handleVerify(manager *signer.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Signature == "" {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		token, err := manager.Verify(r.Context(), req.Payload, req.Signature)
		if err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		writeJSON(w, http.StatusOK, verifyResponse{
			Valid:     true,
			TokenID:   token.ID.String(),
			ClientID:  token.ClientID,
			ExpiresAt: token.ExpiresAt,
		})
	}
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, signer.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, signer.ErrExpired):
		return http.StatusGone
	case errors.Is(err, signer.ErrUsed):
		return http.StatusConflict
	case errors.Is(err, signer.ErrBadSignature), errors.Is(err, signer.ErrBadPayload):
		return http.StatusUnauthorized
	case errors.Is(err, signer.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

// --- middleware & helpers ---

func jwtAuth(secret, clientID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimSpace(auth[7:])
			sub, err := parseAndValidateJWT(raw, secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if sub != clientID {
				http.Error(w, "unknown client", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseAndValidateJWT(tokenStr, secret string) (string, error) {
	tok, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", errors.New("invalid jwt")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- config ---

type config struct {
	ClientID       string
	ClientSecret   string
	SelfKey        string
	SignatureParam string
	JWTSecret      string
	Port           int
	DefaultTTL     time.Duration
	RedisAddr      string
	RateLimit      int
	LogLevel       string
}

func loadConfig() config {
	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	ttl := 5 * time.Minute
	if t := os.Getenv("DEFAULT_TTL_SECONDS"); t != "" {
		if v, err := strconv.Atoi(t); err == nil && v > 0 {
			ttl = time.Duration(v) * time.Second
		}
	}
	rateLimit := 0
	if rl := os.Getenv("RATE_LIMIT"); rl != "" {
		if v, err := strconv.Atoi(rl); err == nil && v > 0 {
			rateLimit = v
		}
	}
	return config{
		ClientID:       envOr("CLIENT_ID", "dev-client-id"),
		ClientSecret:   envOr("CLIENT_SECRET", "dev-client-secret-change-me"),
		SelfKey:        os.Getenv("SELF_KEY"),
		SignatureParam: os.Getenv("SIGNATURE_PARAM"),
		JWTSecret:      envOr("JWT_SECRET", "dev-jwt-secret-change-me"),
		Port:           port,
		DefaultTTL:     ttl,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RateLimit:      rateLimit,
		LogLevel:       envOr("LOG_LEVEL", "info"),
	}
}

func envOr(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
