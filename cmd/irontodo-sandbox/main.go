package main

import (
	"log"
	"os"
	"time"

	"github.com/existflow/irontodo/internal/fakeapi"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
)

// A throwaway in-memory API for trying the client without a backend.
//
//	PORT            listen port (8000)
//	SANDBOX_USER    seed this account, with SANDBOX_PASSWORD
//	SANDBOX_TOKEN_TTL  token lifetime, e.g. 2m to exercise expiry
func main() {
	if err := logger.Init(logger.Config{
		Level:   logger.ParseLevel(getEnv("SANDBOX_LOG_LEVEL", "INFO")),
		Console: true,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	port := getEnv("PORT", "8000")

	var opts []fakeapi.Option
	if ttl := os.Getenv("SANDBOX_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			log.Fatalf("Bad SANDBOX_TOKEN_TTL: %v", err)
		}
		opts = append(opts, fakeapi.WithTokenTTL(d))
	}
	srv := fakeapi.New(opts...)

	if name := os.Getenv("SANDBOX_USER"); name != "" {
		u, err := srv.SeedUser(name, getEnv("SANDBOX_PASSWORD", "password123"))
		if err != nil {
			log.Fatalf("Failed to seed user: %v", err)
		}
		srv.SeedTodos(u.Key,
			model.TodoDraft{Title: "Try the pager", Priority: "high"},
			model.TodoDraft{Title: "Delete me and press u", Priority: "low"},
		)
		logger.Info("Seeded sandbox user", logger.F("username", u.Username))
	}

	logger.Info("IronTodo sandbox API starting",
		logger.F("addr", ":"+port), logger.F("base", "http://localhost:"+port+fakeapi.Prefix))
	if err := srv.Start(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
