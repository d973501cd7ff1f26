// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/TargetedEntropy/change-log-o-matic/internal/enrich"
	"github.com/TargetedEntropy/change-log-o-matic/internal/report"
)

// NewFlags constructs the full flag set. cfgPath is the YAML config file used
// as a fallback value source for the flags that make sense to pin there.
func NewFlags(cfgPath string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "scrape",
			Usage: "look up mod names from the CurseForge website",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CLOM_SCRAPE"),
			),
		},
		&cli.BoolFlag{
			Name:  "no-scrape-files",
			Usage: "skip looking up file information (faster)",
		},
		&cli.DurationFlag{
			Name:  "delay",
			Usage: "minimum delay between one worker's requests",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CLOM_DELAY"),
			),
			Value: enrich.DefaultDelay,
		},
		ValueChainFlagFromConfigFile(cfgPath, &cli.IntFlag{
			Name:  "max-workers",
			Usage: "maximum number of parallel lookup workers",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CLOM_MAX_WORKERS"),
			),
			Value: enrich.DefaultMaxWorkers,
		}),
		ValueChainFlagFromConfigFile(cfgPath, &cli.StringFlag{
			Name:  "cache-dir",
			Usage: "directory for lookup cache files",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CLOM_CACHE_DIR"),
			),
		}),
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "disable the lookup cache",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output file path (default: stdout)",
		},
		ValueChainFlagFromConfigFile(cfgPath, &cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format",
			Value:   report.FormatMarkdown,
			Validator: func(value string) error {
				return FormatValidator(value)
			},
		}),
		&cli.BoolFlag{
			Name:        "raw-diff",
			Usage:       "dump a raw JSON diff of the two manifests and exit",
			HideDefault: true,
		},
	}
}

// ValueChainFlagFromConfigFile appends a config file source to the given
// flag's Sources chain, keyed by the flag name.
func ValueChainFlagFromConfigFile[T any, C any, VC cli.ValueCreator[T, C]](path string, flag *cli.FlagBase[T, C, VC]) *cli.FlagBase[T, C, VC] {
	if path == "" {
		return flag
	}
	src := yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)
	return flag
}

// FormatValidator rejects --format values the report package cannot render.
func FormatValidator(value string) error {
	for _, f := range report.Formats {
		if value == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q, expected one of %v", value, report.Formats)
}
