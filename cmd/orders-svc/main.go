package main

import (
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/config"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/app"
)

func main() {
	config.MustInit("orders-svc")
	app.MustNewApp().Run()
}
