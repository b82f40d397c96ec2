// Command webfeeder assembles and delivers the weekly technology digest.
package main

import (
	"os"

	"github.com/william-eth/web-tech-feeder/internal/cli"
	"github.com/william-eth/web-tech-feeder/pkg/buildinfo"
)

func main() {
	cli.SetVersion(buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
