package main

import "github.com/pfrederiksen/seat-watch/internal/cli"

func main() {
	cli.Execute()
}
