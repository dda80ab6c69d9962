// drod exposes a DRO device as an L1 controller over MQTT and websocket.
package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/dro.go/pkg/dro"
	fx "github.com/robotalks/dro.go/pkg/framework"
	env "github.com/robotalks/dro.go/pkg/l1/env/controller"
)

func init() {
	env.SetupFlags()
	dro.SetupFlags()
}

func main() {
	flag.Parse()

	conf := dro.Default()
	if err := conf.ApplyMeta(&env.Default().Info.Meta); err != nil {
		log.Fatalln(err)
	}
	e := env.NewConfig().MustNewEnv()
	ctl, err := conf.NewController(e)
	if err != nil {
		log.Fatalln(err)
	}
	fx.NewLoop().Add(e, ctl).RunOrFail()
}
