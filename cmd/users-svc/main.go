package main

import (
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/config"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/users/app"
)

func main() {
	config.MustInit("users-svc")
	app.MustNewApp().Run()
}
