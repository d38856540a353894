package main

import (
	"github.com/storefront-labs/order-svc/internal/app"
	"github.com/storefront-labs/order-svc/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
