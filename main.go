// Command tada-sync is `todo`, installable from the module root.
package main

import (
	"os"

	"github.com/idilsaglam/tada-sync/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
