// Command tabq loads tabular data files into memory and queries them.
package main

import (
	"os"

	"github.com/roach88/tabq/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
