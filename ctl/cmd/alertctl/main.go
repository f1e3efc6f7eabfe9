package main

import (
	"os"

	"github.com/ciops/alertdesk/ctl/internal/cmd"
)

func main() {
	if err := cmd.NewCmdRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
