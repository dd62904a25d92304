// Command canisense estimates a dog's behavioral state from capture signals
package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/canisense/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
