// Package main is the entry point for the gcq CLI binary.
package main

import (
	"os"

	cli "gcloud-go/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
