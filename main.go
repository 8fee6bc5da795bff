package main

import (
	"os"

	"github.com/loomlang/loom/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
