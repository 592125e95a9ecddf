package main

import (
	"os"

	"github.com/noah-isme/gema-contact-relay/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
