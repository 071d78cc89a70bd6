package main

import "abc-dashboard/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
