package main

import "github.com/kamusis/aipkg/cmd"

func main() {
	cmd.Execute()
}
