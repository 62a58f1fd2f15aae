package main

import (
	"os"

	"github.com/shunichi-ikebuchi/draft-ledger/cmd/draft-ledger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
