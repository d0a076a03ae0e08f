package main

import (
	"os"

	"github.com/cazamitos/cazamitos/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
