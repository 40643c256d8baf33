package main

import (
	"os"

	"github.com/jaeles-project/sitemirror/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
