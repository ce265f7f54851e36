package main

import "storefront/cmd/shopctl/commands"

func main() {
	commands.Execute()
}
