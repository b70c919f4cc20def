package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/zerotrust-iot/cmd"
)

func main() {
	app := &cli.App{
		Name:  "zerotrust-demo",
		Usage: "scripted zero-trust IoT security demonstration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "device-connections",
				EnvVars: []string{"DEVICE_CONNECTIONS"},
				Value:   "device_connections.json",
				Usage:   "path to the device id -> connection string mapping",
			},
			&cli.DurationFlag{
				Name:    "message-interval",
				EnvVars: []string{"MESSAGE_INTERVAL"},
				Value:   cmd.DefaultMessageInterval,
			},
			&cli.DurationFlag{
				Name:    "duration",
				EnvVars: []string{"SIM_DURATION"},
				Value:   cmd.DefaultDuration,
			},
			&cli.Float64Flag{
				Name:    "anomaly-rate",
				EnvVars: []string{"ANOMALY_RATE"},
				Value:   0.05,
			},
			&cli.DurationFlag{
				Name:    "send-timeout",
				EnvVars: []string{"SEND_TIMEOUT"},
				Value:   cmd.DefaultSendTimeout,
			},
			&cli.StringFlag{
				Name:    "dashboard-addr",
				EnvVars: []string{"DASHBOARD_ADDR"},
				Value:   "0.0.0.0:8080",
			},
			&cli.StringFlag{
				Name:    "dashboard-dir",
				EnvVars: []string{"DASHBOARD_DIR"},
				Value:   "web",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "run the complete demonstration: dashboard, devices, attack narrative",
				Action: cmd.DemoCommand,
			},
			{
				Name:   "simulate",
				Usage:  "run only the device telemetry simulation",
				Action: cmd.SimulateCommand,
			},
			{
				Name:   "attack",
				Usage:  "run only the scripted attack narrative and live probes",
				Action: cmd.AttackCommand,
			},
			{
				Name:   "dashboard",
				Usage:  "serve the dashboard and the security event feed",
				Action: cmd.DashboardCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
