// Copyright 2026 Scopeworks
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/scopeworks/kbpipeline"
	"github.com/scopeworks/kbpipeline/config"
)

func main() {
	app := &cli.App{
		Name:  "kbpipeline",
		Usage: "Knowledge-base ingestion and deduplication pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "config.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "Scan the document store, index new material, flag likely duplicates",
				Action: scanCommand,
			},
			{
				Name:   "worker",
				Usage:  "Run a vectorization worker consuming approved documents",
				Action: workerCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reconcile",
						Usage: "Re-queue approved documents whose vectorization never completed before consuming",
						Value: true,
					},
				},
			},
			{
				Name:  "approvals",
				Usage: "Review documents flagged as similar to indexed content",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List open review tickets",
						Action: approvalsListCommand,
					},
					{
						Name:      "approve",
						Usage:     "Approve a ticket and queue its document for vectorization",
						ArgsUsage: "<ticket-id>",
						Action:    approveCommand,
						Flags:     reviewFlags(),
					},
					{
						Name:      "reject",
						Usage:     "Reject a ticket, leaving existing vectors untouched",
						ArgsUsage: "<ticket-id>",
						Action:    rejectCommand,
						Flags:     reviewFlags(),
					},
				},
			},
			{
				Name:   "documents",
				Usage:  "List documents known to the registry",
				Action: documentsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func reviewFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "reviewer",
			Aliases:  []string{"r"},
			Usage:    "Name of the reviewing admin",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "comment",
			Usage: "Optional review comment",
		},
	}
}

func newService(c *cli.Context) (*kbpipeline.Service, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return kbpipeline.New(c.Context, cfg)
}

func scanCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := svc.Scan(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Scanned:          %d\n", stats.Scanned)
	fmt.Printf("New:              %d\n", stats.New)
	fmt.Printf("Updated:          %d\n", stats.Updated)
	fmt.Printf("Pending approval: %d\n", stats.PendingApproval)
	fmt.Printf("Failed:           %d\n", stats.Failed)
	return nil
}

func workerCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("reconcile") {
		queued, err := svc.ReconcileApproved(ctx)
		if err != nil {
			return fmt.Errorf("reconciling approved documents: %w", err)
		}
		if queued > 0 {
			slog.Info("re-queued approved documents", "count", queued)
		}
	}

	slog.Info("worker started")
	return svc.RunWorker(ctx)
}

func approvalsListCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	pending, err := svc.PendingApprovals(c.Context)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		fmt.Println("No open tickets.")
		return nil
	}

	for _, ticket := range pending {
		fmt.Printf("%s  %-16s  %.2f  %s\n", ticket.ID, ticket.Classification, ticket.TopScore, ticket.DocumentPath)
		fmt.Printf("    %s\n", ticket.Reason)
		for _, rel := range ticket.Related {
			fmt.Printf("    related: %s (%.2f)\n", rel.DocumentPath, rel.Score)
		}
	}
	return nil
}

func approveCommand(c *cli.Context) error {
	return resolveCommand(c, true)
}

func rejectCommand(c *cli.Context) error {
	return resolveCommand(c, false)
}

func resolveCommand(c *cli.Context, approve bool) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one ticket ID")
	}
	ticketID := c.Args().First()

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	reviewer := c.String("reviewer")
	comment := c.String("comment")

	var verb string
	if approve {
		_, err = svc.Approve(c.Context, ticketID, reviewer, comment)
		verb = "approved"
	} else {
		_, err = svc.Reject(c.Context, ticketID, reviewer, comment)
		verb = "rejected"
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ticket %s %s.\n", ticketID, verb)
	return nil
}

func documentsCommand(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	docs, err := svc.Documents(c.Context)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		state := "pending"
		if doc.Indexed {
			state = "indexed"
		}
		fmt.Printf("%-8s  %4d vectors  %s\n", state, doc.VectorCount, doc.Path)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
