package main

import (
	"os"

	"github.com/demoplan/demoplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
