package main

import (
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/config"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/app"
)

func main() {
	config.MustInit("products-svc")
	app.MustNewApp().Run()
}
