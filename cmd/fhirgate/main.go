// main is the entry point for the fhirgate CLI.
package main

import (
	"github.com/joho/godotenv"

	"github.com/huangsam/fhirgate/cmd"
	"github.com/huangsam/fhirgate/internal/contract"
)

func main() {
	// A missing .env file is fine; FHIRGATE_* variables may come from the shell.
	_ = godotenv.Load()

	defer cmd.Close()
	if err := cmd.Execute(); err != nil {
		cmd.Close()
		contract.LogFatal("Command failed", err)
	}
}
