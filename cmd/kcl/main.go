package main

import (
	"github.com/kcl-lang/kclvm-go/pkg/cli"
)

func main() {
	cli.Execute()
}
