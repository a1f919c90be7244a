// Command tokengen mints an access token for manual API testing and
// operational scripts. It reads the same JWT configuration as the API
// server, so the minted token passes the server's verifier.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/paylane/payroll-backend-go/internal/config"
	"github.com/paylane/payroll-backend-go/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "user id claim")
	email := flag.String("email", "", "email claim")
	companyID := flag.String("company", "", "company id claim")
	flag.Parse()

	if *companyID == "" {
		log.Fatal("-company is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	token, expiresAt, err := jwtService.GenerateAccessToken(*userID, *email, *companyID)
	if err != nil {
		log.Fatal("Failed to generate token:", err)
	}

	fmt.Println(token)
	fmt.Println("expires:", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
}
