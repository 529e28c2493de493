package main

import (
	"github.com/deep-sre-agent/go-toolclient/internal/cli"
)

func main() {
	cli.Execute()
}
