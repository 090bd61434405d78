// Command devtoken mints a bearer token for local development, standing in
// for the external identity provider.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"pubhub/internal/config"
	"pubhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	userID := flag.Uint("user", 1, "User ID placed in the sub claim")
	role := flag.String("role", string(models.RoleAuthor), "Role claim: author or editor")
	name := flag.String("name", "", "Display name claim")
	email := flag.String("email", "", "Email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to mint development tokens in production")
	}
	if *userID == 0 {
		log.Fatal("-user must be positive")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(*userID), 10),
		"role": string(models.ParseRole(*role)),
		"iat":  now.Unix(),
		"exp":  now.Add(*ttl).Unix(),
	}
	if *name != "" {
		claims["name"] = *name
	}
	if *email != "" {
		claims["email"] = *email
	}
	if cfg.JWTIssuer != "" {
		claims["iss"] = cfg.JWTIssuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Fprintln(os.Stdout, signed)
}
