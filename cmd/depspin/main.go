package main

import "depspin/internal/cli"

func main() {
	cli.Execute()
}
