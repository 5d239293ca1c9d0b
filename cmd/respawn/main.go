package main

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/respawn/internal/app"
)

func main() {
	code, err := app.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}
