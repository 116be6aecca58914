package main

import "github.com/nodeforge/taskengine/cmd"

func main() {
	cmd.Execute()
}
