package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/fleetconsole/cmd/fleetconsole/app"
)

func main() {
	app.NewApp().Run()
}
