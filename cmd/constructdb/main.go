// Command constructdb inspects and maintains a Construct database.
package main

import (
	"context"
	"os"

	"github.com/Thomvis/Construct-sub002/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
