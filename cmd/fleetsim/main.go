package main

import "github.com/signalsfoundry/orbital-fleet-economics/internal/cli"

func main() {
	cli.Execute()
}
