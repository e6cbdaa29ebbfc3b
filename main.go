package main

import (
	"context"
	"os"

	"github.com/crossfi-labs/stablearb/cmd"
	"github.com/crossfi-labs/stablearb/utils"
)

func main() {
	defer utils.CleanupLogger()

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
