// Command clipscore scores short-form video documents.
//
// With no subcommand it reads one JSON document from stdin and writes the
// scored result to stdout. Subcommands cover batch scoring, reference
// population statistics, the HTTP service and a load generator.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
