// Command chronarc explores a weighted historical timeline: it segments the
// visible events, navigates the hierarchy and renders the arc.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
