package main

import (
	"fmt"
	"os"

	_ "storefront/api/swagger" // swagger docs

	"github.com/spf13/cobra"
)

//go:generate swag init -g cmd/api/main.go -o api/swagger --dir ../../ --parseInternal

// @title           Storefront API
// @version         1.0
// @description     Back end of the natural foods shop: catalog, cart, checkout, orders, messaging, newsletter and back office.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "storefront",
	Short:        "Natural foods storefront API",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(chatCmd)
}
