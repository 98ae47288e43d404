// Command sitioss runs the disaster-report intake API.
//
//	@title						SITIOSS intake API
//	@version					1.0
//	@description				Disaster report cards, flood states and report aggregates.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "sitioss",
		Short:   "SITIOSS - disaster report intake server",
		Version: buildVersion(),
		Long: `sitioss serves the report-card, flood-state and report endpoints
backed by the CogniCity PostGIS database.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(purgeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
