package main

import "github.com/DrSkyle/netmapper/cmd/netmapper/commands"

func main() {
	commands.Execute()
}
