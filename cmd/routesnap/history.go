package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lysyi3m/routesnap/app/cfg"
	"github.com/lysyi3m/routesnap/app/ledger"
)

type historyCommand struct {
	Limit int    `long:"limit" default:"10" description:"Number of runs to list"`
	Run   string `long:"run" description:"Show per-route outcomes and warnings of one run"`
}

func (h *historyCommand) Execute(args []string) error {
	c := cfg.Get()
	setupLogger(c)

	if c.LedgerPath == "" {
		return fmt.Errorf("no build ledger configured (set LEDGER_PATH)")
	}

	l, err := ledger.Open(c.LedgerPath)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := context.Background()
	if h.Run != "" {
		return h.showRun(ctx, l)
	}

	runs, err := l.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tROUTES\tWRITTEN\tFAILED\tSKIPPED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status,
			r.Total, r.Written, r.Failed, r.Skipped, r.Error)
	}
	return w.Flush()
}

func (h *historyCommand) showRun(ctx context.Context, l *ledger.Ledger) error {
	routes, err := l.Routes(ctx, h.Run)
	if err != nil {
		return err
	}
	warnings, err := l.Warnings(ctx, h.Run)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tOUTPUT\tSTATUS\tTEMPLATE\tERROR")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Path, r.Output, r.Status, r.Template, r.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, warn := range warnings {
		fmt.Printf("warning: %s\n", warn)
	}
	return nil
}
