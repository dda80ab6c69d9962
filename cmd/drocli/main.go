package main

import (
	"github.com/robotalks/dro.go/pkg/cli/sh"
	env "github.com/robotalks/dro.go/pkg/l1/env/connector"

	_ "github.com/robotalks/dro.go/pkg/cli/cmds/dro"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
