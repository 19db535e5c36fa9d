package main

import (
	"os"
	_ "time/tzdata"

	"github.com/kipper0508/escape-bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
