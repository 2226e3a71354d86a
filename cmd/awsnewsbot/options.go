package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
)

const (
	modeLambda = "lambda"
	modeOnce   = "once"
	modeCron   = "cron"
	modeHTTP   = "http"
)

type options struct {
	Mode   string `long:"mode" env:"NEWSBOT_MODE" description:"How the relay is driven: lambda, once, cron or http (default: lambda inside AWS Lambda, once elsewhere)"`
	Config string `long:"config" env:"NEWSBOT_CONFIG" description:"Optional YAML config file"`
	Cron   string `long:"cron" description:"Cron expression for --mode=cron, overrides CRON_SCHEDULE"`
	Listen string `long:"listen" description:"Listen address for --mode=http, overrides HTTP_ADDR"`
}

// errHelp signals that usage was printed and the process should exit cleanly.
var errHelp = errors.New("help requested")

func parseOptions(args []string) (options, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return opts, errHelp
		}
		return opts, fmt.Errorf("parse flags: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "":
		opts.Mode = defaultMode()
	case modeLambda, modeOnce, modeCron, modeHTTP:
		opts.Mode = strings.ToLower(strings.TrimSpace(opts.Mode))
	default:
		return opts, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	return opts, nil
}

func defaultMode() string {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return modeLambda
	}
	return modeOnce
}
