package main

import (
	"os"

	"stringtracker/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
