package config

import (
	"log"
	"strings"
	"time"
)

const (
	// ProdDbId is the identifier for the production database
	ProdDbId = "old-cloud"

	// DefaultDashboardRoute is where the admin lands after a successful payment
	DefaultDashboardRoute = "/admin/dashboard"

	// DefaultSessionTTL bounds how long an idle checkout session is kept in memory
	DefaultSessionTTL = 30 * time.Minute

	// MaxCheckoutSessions caps the number of live checkout sessions
	MaxCheckoutSessions = 1024

	// PaymentDateLayout is the YYYY-MM-DD layout used for payment records
	PaymentDateLayout = "2006-01-02"
)

// CheckNotProdDB aborts immediately if the configured database URL contains ProdDbId.
// This should be called at the start of any test that interacts with the database.
func CheckNotProdDB() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DatabaseURL is not configured")
	}
	if strings.Contains(cfg.DatabaseURL, ProdDbId) {
		log.Fatalf("Tests aborted: DatabaseURL contains production identifier %s", ProdDbId)
	}
}
