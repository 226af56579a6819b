package main

import (
	"os"

	"github.com/parcdesk/parcbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
