package main

import "github.com/timvw/devloop/cmd"

func main() {
	cmd.Execute()
}
