package main

import (
	"os"

	"collab-go/app/cli"
)

func main() {
	os.Exit(cli.Execute())
}
