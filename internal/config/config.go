package config

import (
	"log/slog"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MustInit loads the environment and the YAML config for the given service.
// Every service binary calls it before building the application.
func MustInit(service string) {
	if err := godotenv.Load("./.env"); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}
	viper.SetConfigName(service)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/" + service)
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

func SetupLogger() {
	handler := logger.NewHandler(nil)
	log := slog.New(handler)
	slog.SetDefault(log)
}
