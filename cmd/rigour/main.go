package main

import (
	"os"

	"github.com/rigour/rigour_sdk_go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
