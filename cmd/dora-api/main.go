package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/gip-inclusion/dora-api/api/swagger"
	"github.com/gip-inclusion/dora-api/internal/cli/migrate"
	"github.com/gip-inclusion/dora-api/internal/cli/server"
)

// @title DORA Orientations API
// @version 1.0.0
// @description Orientation lifecycle, contact relay and notifications for the DORA service directory.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rootCmd := &cobra.Command{
		Use:   "dora-api",
		Short: "DORA orientations API",
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
