package main

import (
	"os"

	"github.com/spgci/spgci-go/cmd/spgci/commands"
)

func main() {
	os.Exit(commands.Execute())
}
