package main

import (
	"os"

	"github.com/wpdevtools/devtools/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
