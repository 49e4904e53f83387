package main

import (
	"os"

	"github.com/zeronorth-oss/znctl/cmd"
)

// main function remains to call Execute.
func main() {
	cmd.Execute(os.Args[1:])
}
