package main

import "proposal-core/cmd/proposal-cli/cmd"

func main() {
	cmd.Execute()
}
