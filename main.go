package main

import "example.com/fleetdocs/cmd"

func main() {
	cmd.Execute()
}
