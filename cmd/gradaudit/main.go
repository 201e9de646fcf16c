package main

import (
	"os"

	"github.com/ncku-csie/gradaudit/cmd/gradaudit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
