// Command otrsctl searches, reads, creates and updates OTRS tickets through
// the GenericInterface REST webservice.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
