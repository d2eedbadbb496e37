package main

import (
	"fmt"
	"os"

	"studenthelp/backend/internal/cli"
)

// @title           StudentHelp API
// @version         1.0
// @description     API for student networking: profiles, connections, notifications and direct messages.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
