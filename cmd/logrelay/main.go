package main

import "github.com/andrescamacho/logrelay/internal/adapters/cli"

func main() {
	cli.Execute()
}
