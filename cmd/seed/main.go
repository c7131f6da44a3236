package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/user-account-api/config"
	"github.com/oksasatya/user-account-api/internal/container"
	"github.com/oksasatya/user-account-api/pkg/apperror"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

// seed registers a demo user through the same service the API uses, so the
// store's indexes and the search index are exercised too.
func main() {
	name := flag.String("name", "demoUser", "user name")
	email := flag.String("email", "demo@example.com", "user email")
	password := flag.String("password", "password123", "user password")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, "")

	ctx := context.Background()
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize dependencies: %v", err)
	}
	defer c.Close()

	_, err = c.UserService.Register(ctx, *name, *email, *password)
	switch {
	case errors.Is(err, apperror.ErrConflict):
		fmt.Printf("user already present: email=%s\n", *email)
		return
	case err != nil:
		log.Fatalf("failed to seed user: %v", err)
	}

	u, err := c.Users.FindByEmail(ctx, *email)
	if err != nil || u == nil {
		log.Fatalf("seeded user not readable: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", u.ID, u.Email, u.Name, *password)
}
