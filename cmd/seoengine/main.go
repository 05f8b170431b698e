// The main package for the seoengine executable.
package main

import (
	"github.com/ackwest/seoengine/cmd"
)

func main() {
	cmd.Execute()
}
