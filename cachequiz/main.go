// Command cachequiz generates and grades cache-memory exercises.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachequiz/cachequiz/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
