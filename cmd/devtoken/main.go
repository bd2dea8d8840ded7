// Command devtoken mints a signed bearer token for local development against
// a hub configured with the same AUTH_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"wanderlink/internal/auth"
	"wanderlink/internal/logging"
)

func main() {
	subject := flag.String("sub", "", "user id to put in the token")
	email := flag.String("email", "", "optional email claim")
	roles := flag.String("roles", "", "comma separated role claims, e.g. admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logging.SetGlobalLogger(logging.New(logging.Config{Format: "text"}))
	_ = godotenv.Load("config/local.env")

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		log.Fatal().Msg("AUTH_JWT_SECRET is not set")
	}
	if *subject == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -sub user-id [-email addr] [-roles admin] [-ttl 24h]")
		os.Exit(2)
	}

	identity := auth.Identity{UserID: *subject, Email: *email, Roles: splitRoles(*roles)}
	token, err := auth.NewToken(secret, identity, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(token)
}

func splitRoles(raw string) []string {
	var roles []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
