package main

import (
	"os"

	"github.com/PabloGalante/noto-agent/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
