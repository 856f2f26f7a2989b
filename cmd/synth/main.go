package main

import (
	"os"

	_ "github.com/json-to-terraform/constructs/internal/handler" // register kinds
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
