package main

import (
	"os"

	"github.com/maxkimambo/dagsched/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
