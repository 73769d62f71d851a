package main

import "bookhunt/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
