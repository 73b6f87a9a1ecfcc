package main

import (
	"github.com/mchmarny/riskctl/pkg/cli"
)

func main() {
	cli.Execute()
}
