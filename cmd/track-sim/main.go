package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/cmd/track-sim/app"
)

func main() {
	app.NewApp().Run()
}
