// Command devtoken mints an access token for local testing against the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/internal/service"
	"github.com/hshinosa/kompetensia-api/pkg/config"
)

func main() {
	var (
		userID   string
		role     string
		email    string
		fullName string
		ttl      time.Duration
	)

	flag.StringVar(&userID, "user", "", "User id, or the participant id for PARTICIPANT tokens")
	flag.StringVar(&role, "role", string(models.RoleParticipant), "SUPERADMIN, ADMIN, MENTOR or PARTICIPANT")
	flag.StringVar(&email, "email", "", "Email claim")
	flag.StringVar(&fullName, "name", "", "Full name claim")
	flag.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Env == config.EnvProduction {
		log.Fatal("refusing to mint tokens in production")
	}

	auth := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	token, expiresAt, err := auth.IssueToken(strings.TrimSpace(userID), models.UserRole(strings.ToUpper(role)), email, fullName, ttl)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
