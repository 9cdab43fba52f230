// Command pagoda works with analysis reports offline: it derives the donut
// slices, renders the chart, resolves a click and can run a photo through
// the vision model directly.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
