// Copyright 2022 The user-notification-system Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/alonevenhaim/user-notification-system/cmd"
	"github.com/alonevenhaim/user-notification-system/common"
	"github.com/apex/log"
	apexJSON "github.com/apex/log/handlers/json"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

type cliArgs struct {
	JSONLog       bool
	LogLevel      string `validate:"required,oneof=debug info warn error"`
	ConfigFile    string `validate:"omitempty,file"`
	Hostname      string
	ClientID      string
	WatchInterval int `validate:"omitempty,gte=1"`
}

var cmdArgs cliArgs

var logTags log.Fields

// @title user-notification-system
// @version v0.1.0
// @description REST service tracking client connection state from HELLO / GOODBYE notifications

// @host localhost:3000
// @BasePath /
// @query.collection.format multi
func main() {
	hostname, err := os.Hostname()
	if err != nil {
		log.WithError(err).Fatal("Unable to read hostname")
	}
	cmdArgs.Hostname = hostname
	logTags = log.Fields{
		"module":    "main",
		"component": "main",
		"instance":  hostname,
	}

	common.InstallDefaultConfigValues()

	app := &cli.App{
		Version:     "v0.1.0",
		Usage:       "application entrypoint",
		Description: "REST service tracking client connection state from HELLO / GOODBYE notifications",
		Flags: []cli.Flag{
			// LOGGING
			&cli.BoolFlag{
				Name:        "json-log",
				Usage:       "Whether to log in JSON format",
				Aliases:     []string{"j"},
				EnvVars:     []string{"LOG_AS_JSON"},
				Value:       false,
				DefaultText: "false",
				Destination: &cmdArgs.JSONLog,
				Required:    false,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Logging level: [debug info warn error]",
				Aliases:     []string{"l"},
				EnvVars:     []string{"LOG_LEVEL"},
				Value:       "warn",
				DefaultText: "warn",
				Destination: &cmdArgs.LogLevel,
				Required:    false,
			},
			// Config file
			&cli.StringFlag{
				Name:        "config-file",
				Usage:       "Application config file. Use DEFAULT if not specified.",
				Aliases:     []string{"c"},
				EnvVars:     []string{"CONFIG_FILE"},
				Value:       "",
				DefaultText: "",
				Destination: &cmdArgs.ConfigFile,
				Required:    false,
			},
		},
		// Components
		Commands: []*cli.Command{
			{
				Name:        "server",
				Usage:       "Run the notification server",
				Description: "Serves the REST API for client connection event reporting and status queries",
				Action:      startNotificationServer,
			},
			{
				Name:        "client",
				Usage:       "Operate against a running notification server",
				Description: "Client side operations using the notification server REST API",
				Subcommands: []*cli.Command{
					{
						Name:        "hello",
						Usage:       "Report a client HELLO event",
						Description: "Marks the client as connected on the notification server",
						Flags:       clientOpFlags(true),
						Action:      reportClientHello,
					},
					{
						Name:        "goodbye",
						Usage:       "Report a client GOODBYE event",
						Description: "Marks the client as disconnected on the notification server",
						Flags:       clientOpFlags(true),
						Action:      reportClientGoodbye,
					},
					{
						Name:        "status",
						Usage:       "Query client connection statuses",
						Description: "Reads the status of one client, or of all known clients if no ID is given",
						Flags:       clientOpFlags(false),
						Action:      queryClientStatus,
					},
					{
						Name:        "watch",
						Usage:       "Periodically poll client connection statuses",
						Description: "Re-reads client statuses at a fixed interval until interrupted",
						Flags: append(clientOpFlags(false), &cli.IntFlag{
							Name:        "interval-sec",
							Usage:       "Seconds between status polls",
							Aliases:     []string{"n"},
							EnvVars:     []string{"WATCH_INTERVAL_SEC"},
							Value:       5,
							DefaultText: "5",
							Destination: &cmdArgs.WatchInterval,
							Required:    false,
						}),
						Action: watchClientStatus,
					},
				},
			},
			{
				Name:        "demo",
				Usage:       "Run the end-to-end demonstration",
				Description: "Starts an embedded notification server and walks through the full workflow",
				Action:      startDemo,
			},
		},
	}

	err = app.Run(os.Args)
	if err != nil {
		log.WithError(err).WithFields(logTags).Fatal("Program shutdown")
	}
}

// clientOpFlags CLI flags shared by the client subcommands
func clientOpFlags(idRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "client-id",
			Usage:       "Client ID the operation refers to",
			Aliases:     []string{"i"},
			EnvVars:     []string{"CLIENT_ID"},
			Value:       "",
			DefaultText: "",
			Destination: &cmdArgs.ClientID,
			Required:    idRequired,
		},
	}
}

// setupLogging helper function to prepare the app logging
func setupLogging() {
	if cmdArgs.JSONLog {
		log.SetHandler(apexJSON.New(os.Stderr))
	}
	switch cmdArgs.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}
}

// initialCmdArgsProcessing perform initial CMD arg processing
func initialCmdArgsProcessing() (*common.SystemConfig, error) {
	validate := validator.New()
	// Validate command line argument
	if err := validate.Struct(&cmdArgs); err != nil {
		log.WithError(err).WithFields(logTags).Error("Invalid CMD args")
		return nil, err
	}
	setupLogging()
	tmp, err := json.MarshalIndent(&cmdArgs, "", "  ")
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to marshal args")
		return nil, err
	}
	log.Debugf("Starting params\n%s", tmp)
	// Parse the config file
	if len(cmdArgs.ConfigFile) > 0 {
		viper.SetConfigFile(cmdArgs.ConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			log.WithError(err).WithFields(logTags).Errorf(
				"Failed to read config file %s", cmdArgs.ConfigFile,
			)
			return nil, err
		}
	}
	var config common.SystemConfig
	if err := viper.Unmarshal(&config); err != nil {
		log.WithError(err).WithFields(logTags).Errorf(
			"Failed to parse config file %s", cmdArgs.ConfigFile,
		)
		return nil, err
	}
	tmp, err = json.MarshalIndent(&config, "", "  ")
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to marshal config files")
		return nil, err
	}
	log.Debugf("Config file\n%s", tmp)
	if err := validate.Struct(&config); err != nil {
		log.WithError(err).WithFields(logTags).Error("Invalid config file content")
		return nil, err
	}
	return &config, nil
}

func defineControlVars() (*sync.WaitGroup, context.Context, context.CancelFunc) {
	runTimeContext, rtCancel := context.WithCancel(context.Background())
	return &sync.WaitGroup{}, runTimeContext, rtCancel
}

// signalRecvSetup helper function for setting up the SIG receive handler. The
// handler also unblocks when the runtime context ends so one-shot commands exit.
func signalRecvSetup(
	wg *sync.WaitGroup, runTimeContext context.Context, ctxtCancel context.CancelFunc,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		cc := make(chan os.Signal, 1)
		// We'll accept graceful shutdowns when quit via SIGINT (Ctrl+C)
		// SIGKILL, SIGQUIT or SIGTERM (Ctrl+/) will not be caught.
		signal.Notify(cc, os.Interrupt)
		select {
		case <-cc:
		case <-runTimeContext.Done():
		}
		ctxtCancel()
	}()
}

// ============================================================================
// Server subcommand

// startNotificationServer run the notification server
func startNotificationServer(c *cli.Context) error {
	config, err := initialCmdArgsProcessing()
	if err != nil {
		return err
	}

	wg, runTimeContext, rtCancel := defineControlVars()
	defer wg.Wait()
	defer rtCancel()

	signalRecvSetup(wg, runTimeContext, rtCancel)

	return cmd.RunNotificationServer(
		runTimeContext, &config.Service, config.Registry, cmdArgs.Hostname,
	)
}

// ============================================================================
// Client subcommands

// reportClientHello report a HELLO event for the selected client
func reportClientHello(c *cli.Context) error {
	return reportClientEvent(common.ClientEventHello)
}

// reportClientGoodbye report a GOODBYE event for the selected client
func reportClientGoodbye(c *cli.Context) error {
	return reportClientEvent(common.ClientEventGoodbye)
}

func reportClientEvent(eventType common.ClientEventType) error {
	config, err := initialCmdArgsProcessing()
	if err != nil {
		return err
	}

	wg, runTimeContext, rtCancel := defineControlVars()
	defer wg.Wait()
	defer rtCancel()

	signalRecvSetup(wg, runTimeContext, rtCancel)

	return cmd.RunClientEventReport(
		runTimeContext, config.Client, cmdArgs.ClientID, eventType, cmdArgs.Hostname,
	)
}

// queryClientStatus read client connection statuses once
func queryClientStatus(c *cli.Context) error {
	config, err := initialCmdArgsProcessing()
	if err != nil {
		return err
	}

	wg, runTimeContext, rtCancel := defineControlVars()
	defer wg.Wait()
	defer rtCancel()

	signalRecvSetup(wg, runTimeContext, rtCancel)

	return cmd.RunClientStatusQuery(
		runTimeContext, config.Client, cmdArgs.ClientID, cmdArgs.Hostname,
	)
}

// watchClientStatus poll client connection statuses until interrupted
func watchClientStatus(c *cli.Context) error {
	config, err := initialCmdArgsProcessing()
	if err != nil {
		return err
	}

	wg, runTimeContext, rtCancel := defineControlVars()
	defer wg.Wait()
	defer rtCancel()

	signalRecvSetup(wg, runTimeContext, rtCancel)

	return cmd.RunClientStatusWatch(
		runTimeContext,
		wg,
		config.Client,
		cmdArgs.ClientID,
		time.Second*time.Duration(cmdArgs.WatchInterval),
		cmdArgs.Hostname,
	)
}

// ============================================================================
// Demo subcommand

// startDemo run the end-to-end demonstration
func startDemo(c *cli.Context) error {
	config, err := initialCmdArgsProcessing()
	if err != nil {
		return err
	}

	wg, runTimeContext, rtCancel := defineControlVars()
	defer wg.Wait()
	defer rtCancel()

	signalRecvSetup(wg, runTimeContext, rtCancel)

	return cmd.RunEndToEndDemo(
		runTimeContext, wg, &config.Service, config.Registry, config.Client, cmdArgs.Hostname,
	)
}
