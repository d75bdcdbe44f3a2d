// Package main provides genrectl, an operator CLI for the genre taxonomy.
//
// Every command opens the database under DATA_PATH, runs one genre command
// or query, and prints the result as JSON on stdout. Business failures are
// printed as a coded JSON error on stderr.
//
// Usage:
//
//	genrectl --account acct-1 create --name Shoegaze --parent <rock-id>
//	genrectl --account acct-1 update <id> --aka-primary "Shoegazing, Gaze"
//	genrectl --account acct-1 vote <id> 5
//	genrectl tree --text
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
