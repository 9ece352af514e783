package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sgjo/shop-backend/internal/pkg/auth"
)

// Generates the bcrypt hash for ADMIN_PASSWORD_HASH.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	password := os.Args[1]

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal("Error generating hash:", err)
	}

	if err := auth.VerifyPassword(password, hash); err != nil {
		log.Fatal("Hash verification failed:", err)
	}

	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
}
