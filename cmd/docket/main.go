package main

import (
	"os"

	"github.com/procuraduria/docket/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
