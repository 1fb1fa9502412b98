// Command taskalloc runs task allocation experiments: exhaustive search, the
// greedy heuristic, their comparison and the search space bounds.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
