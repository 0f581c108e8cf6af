// Command medbeectl is the operator tool: it seeds bootstrap accounts and
// issues debugging tokens against the configured deployment.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
