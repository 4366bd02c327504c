// Command churnpipe prepares the churn dataset and trains the
// classifier.
package main

import "github.com/leapstack-labs/churnpipe/internal/cli"

func main() {
	cli.Execute()
}
