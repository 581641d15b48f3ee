// The main package for the mensascraper executable.
package main

import (
	"github.com/mensatf/mensascraper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
