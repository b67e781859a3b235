package main

import (
	"fmt"
	"os"

	"github.com/daivik-hirpara/Engineering-Knowledge-Graph/infrastructure/ingest"
)

func main() {
	dataDir := "data"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	validator := ingest.NewValidator()
	valid := validator.ValidateAll(dataDir)
	fmt.Print(validator.Report())

	if !valid {
		os.Exit(1)
	}
}
