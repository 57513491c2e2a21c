package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/napcube/pod-reservation-backend/internal/utils"
	"github.com/napcube/pod-reservation-backend/pkg/jwt"
)

func main() {
	var operator, issuer, secret string
	var ttl time.Duration
	flag.StringVar(&operator, "operator", "ops", "operator name embedded in the admin token")
	flag.StringVar(&issuer, "issuer", "napcube-admin", "token issuer (must match ADMIN_JWT_ISSUER)")
	flag.StringVar(&secret, "secret", "", "existing ADMIN_JWT_SECRET to sign with (a new one is generated when empty)")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "admin token lifetime")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("Admin Secret Generator for NapCube")
	fmt.Println("===========================================")
	fmt.Println()

	generated := secret == ""
	if generated {
		var err error
		secret, err = utils.GenerateSecret(32)
		if err != nil {
			log.Fatalf("Failed to generate secret: %v", err)
		}
	}

	token, err := jwt.NewService(secret, issuer, ttl).GenerateToken(operator, []string{jwt.RoleAdmin})
	if err != nil {
		log.Fatalf("Failed to sign admin token: %v", err)
	}

	if generated {
		fmt.Println("Add this to your .env file or deployment secrets:")
		fmt.Println()
		fmt.Printf("ADMIN_JWT_SECRET=%s\n", secret)
		fmt.Println()
	}
	fmt.Printf("Admin bearer token for %q (expires in %s):\n", operator, ttl)
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Println("IMPORTANT: Keep these values safe and never commit them to version control!")
	fmt.Println("===========================================")
}
