package main

import "github.com/edumarques81/songdle/internal/cli"

func main() {
	cli.Execute()
}
