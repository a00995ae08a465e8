package main

import "github.com/scentboard/scentboard/cmd/scentctl/commands"

func main() {
	commands.Execute()
}
