package main

import (
	"os"

	"github.com/nftmarket/indexer-query/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
