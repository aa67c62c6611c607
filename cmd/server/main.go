package main

import (
	"fmt"
	"os"

	_ "uptask/docs"
)

// @title           UpTask API
// @version         1.0
// @description     Projects, tasks, teams and notes with e-mail confirmed accounts.

// @host      localhost:4000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

// @schemes http
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
