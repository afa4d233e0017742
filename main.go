package main

import "github.com/xvierd/gitprompt/cmd"

func main() {
	cmd.Execute()
}
