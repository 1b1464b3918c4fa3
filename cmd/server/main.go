package main

import (
	app "projectpage/internal/app/server"
	"projectpage/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel, cfg.Server.LogFile)

	app.Run(cfg)
}
