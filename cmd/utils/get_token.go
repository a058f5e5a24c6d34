package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"

	"buswatch-service/internal/infrastructure/oauth"
	"buswatch-service/pkg/logger"

	"github.com/joho/godotenv"
)

// get_token walks through the Gmail consent flow once and prints the refresh
// token to stdout so it can be placed in GMAIL_REFRESH_TOKEN.
func main() {
	_ = godotenv.Load()

	clientID := os.Getenv("GMAIL_CLIENT_ID")
	clientSecret := os.Getenv("GMAIL_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET must be set")
	}

	appLogger := logger.NewLogger("info")
	auth := oauth.NewGmailOAuth(clientID, clientSecret, "", "http://localhost:8090/oauth2callback", appLogger)

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate state: %v", err)
	}
	state := hex.EncodeToString(buf)

	http.HandleFunc("/oauth2callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		token, err := auth.ExchangeCode(context.Background(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to exchange code: %v", err), http.StatusInternalServerError)
			return
		}

		fmt.Printf("\nRefresh Token: %s\n\n", token.RefreshToken)

		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		os.Exit(0)
	})

	fmt.Printf("Open this URL in your browser:\n%s\n", auth.GenerateAuthURL(state))

	log.Fatal(http.ListenAndServe(":8090", nil))
}
