// Package main provides the entry point for the swrite HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swrite",
	Short: "Document-to-handwriting conversion API server",
	Long:  "swrite converts uploaded documents (PDFs and photos) into realistic handwritten page images: classification, text extraction, vision-model pagination, and diffusion-model rendering, exposed via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
