package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"spottrader/src/app"
	"spottrader/src/server"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	_ = godotenv.Load()
	SetupLogger()
	defer handlePanic()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start application")
	}

	application.StartLoops(ctx)

	server.StartServer(ctx, server.GetConfig().Port, application.Cache, application.ConfigRepo, application.Trades)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
