// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/TargetedEntropy/change-log-o-matic/internal/config"
)

// InitApp builds the CLI application. A single command: compare two modpack
// archives and emit the changelog.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	app := &cli.Command{
		Name:      "change-log-o-matic",
		Usage:     "Compare mod manifests from two modpack archives",
		ArgsUsage: "<old.zip> <new.zip>",
		Flags:     NewFlags(config.Path()),
		Action:    compareCommandAction,
	}

	return app, nil
}
