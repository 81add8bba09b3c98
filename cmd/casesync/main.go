// Command casesync mirrors case directories into a local semantic index.
package main

import (
	"os"

	"github.com/custodia-labs/casesync/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBuilder(build)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
