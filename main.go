// Command climacomp aligns station climate series by lag and computes composite forecasts.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/climacomp/cmd"
	"github.com/huangsam/climacomp/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
