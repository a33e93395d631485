package main

import "github.com/ogulcanaydogan/price-guardian/internal/cli"

func main() {
	cli.Execute()
}
