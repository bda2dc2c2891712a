// Package main implements the AccessBridge host simulator binary. It speaks
// the automation host stdio protocol against plain files, so the bridge can
// be exercised without the desktop application installed.
package main

import (
	"os"

	"github.com/accessbridge/accessbridge/pkg/hostsim"
)

func main() {
	if err := hostsim.New(os.Stdin, os.Stdout).Run(); err != nil {
		os.Exit(1)
	}
}
