package main

import "github.com/kamal-hamza/pictag/cmd"

func main() {
	cmd.Execute()
}
