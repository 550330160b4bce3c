package main

import (
	"github.com/ecomlabs/order-svc/internal/app"
	"github.com/ecomlabs/order-svc/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
