package main

import (
	"os"

	"github.com/DEFRA/forms-designer-sub008/cmd/formconditions/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
