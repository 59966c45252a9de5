package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/certen/tls-oracle/accumulate-lite-client-2/liteclient/proof/production"
)

func main() {
	var (
		help = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Println("Devnet Account Explorer")
		fmt.Println("\nUsage:")
		fmt.Println("  test-accounts               # Print where the account tests now live")
		fmt.Println("\nThe account tests have moved; use the test-devnet command instead.")
		os.Exit(0)
	}

	// Run the account tests
	production.RunAccountTests()
}