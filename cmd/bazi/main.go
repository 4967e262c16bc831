package main

import "github.com/quentinrf/bazi-reading/internal/cli"

func main() {
	cli.Execute()
}
