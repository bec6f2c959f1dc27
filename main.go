// Command chabeau is the entry point for the chabeau terminal chat client.
package main

import (
	"os"

	"github.com/chabeau/chabeau/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
