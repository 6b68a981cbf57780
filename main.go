package main

import "github.com/strrl/idea-vault/cmd/idea-vault/commands"

func main() {
	commands.Execute()
}
