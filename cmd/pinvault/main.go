package main

import (
	"os"

	"github.com/TheMichaelB/pinvault/internal/session"
)

func main() {
	err := rootCmd.Execute()
	if err != nil && !errReported {
		printError("%v", err)
	}

	closeApp()
	session.Purge()

	if err != nil {
		os.Exit(1)
	}
}
