package main

import "athleterag/internal/cli"

func main() {
	cli.Execute()
}
