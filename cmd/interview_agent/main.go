// Package main provides the entry point for the interview conductor.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "interview_agent",
	Short: "Automated structured-interview conductor",
	Long: "Interview Conductor runs automated structured screening interviews: it asks questions, " +
		"analyzes answers against the role's must-have skills, and produces a final evaluation.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
