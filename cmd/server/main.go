package main

import (
	"github.com/atlas-collab/atlas/backend/internal/server"
	"github.com/atlas-collab/atlas/backend/internal/util"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
	"github.com/atlas-collab/atlas/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
