package main

import "github.com/nfrund/netspy/cmd/netspy/cmd"

func main() {
	cmd.Execute()
}
