package main

import "github.com/rexeee/mai-protocol/cmd"

func main() {
	cmd.Execute()
}
