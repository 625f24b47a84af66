// Command protocolos administers the protocol record database.
package main

import (
	"os"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
