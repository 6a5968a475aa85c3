package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"spottrader/cmd/report"
	"spottrader/cmd/trader"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Spottrader CMD"
	app.Usage = "The Spottrader command line interface"

	app.Commands = []cli.Command{
		traderCMD,
		reportCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	traderCMD = cli.Command{
		Name:        "trader",
		Usage:       "run the trading engine without the HTTP API",
		Action:      traderAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the headless trading engine`,
	}
	reportCMD = cli.Command{
		Name:        "report",
		Usage:       "send one AI activity digest and exit",
		Action:      reportAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Emit a single AI digest to Telegram`,
	}
)

func traderAction(_ *cli.Context) error {
	logrus.Info("Starting trader CMD")

	t := &trader.Trader{}
	if err := t.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func reportAction(_ *cli.Context) error {
	logrus.Info("Starting report CMD")

	r := &report.Report{}
	if err := r.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
