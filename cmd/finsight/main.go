// Command finsight is the stakeholder-scoped financial document Q&A tool.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/finsight-labs/finsight/internal/adapters/driving/cli"
)

func main() {
	// A .env in the working directory can supply HF_API_KEY during
	// development; absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
