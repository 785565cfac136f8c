// Command probe prints what the window inspectors and idle sources see,
// for checking a desktop before running the tracker.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/category"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/output"
	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/parser"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/detector"
	"github.com/adolfousier/neura-hustle-tracker-sub000/pkg/utils"
)

var (
	interval time.Duration
	duration time.Duration
)

func main() {
	cmd := &cobra.Command{
		Use:           "probe",
		Short:         "Print the focused window and idle time as the tracker sees them",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return probe()
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "Time between probes")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 30*time.Second, "How long to probe, 0 for until interrupted")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func probe() error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}

	det, err := detector.New(time.Second)
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}
	defer det.Close()

	fmt.Println(output.Bold("Hustle Tracker Probe"))
	fmt.Printf("Display Server: %s\n", det.DisplayServer)
	fmt.Printf("Inspectors:     %s\n\n", det.Inspector.Name())
	fmt.Println("Switch between applications to test detection. Ctrl+C to stop.")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, duration)
		defer stop()
	}

	go det.Monitor.Run(ctx)

	home, _ := os.UserHomeDir()
	p := parser.New(home)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for count := 1; ; count++ {
		select {
		case <-ctx.Done():
			fmt.Println("\nProbe finished")
			return nil
		case <-ticker.C:
		}

		probeCtx, probeCancel := context.WithTimeout(ctx, time.Second)
		info, err := det.Inspector.Probe(probeCtx)
		probeCancel()

		idle := time.Since(det.Monitor.LastInput()).Round(time.Second)
		if err != nil {
			log.Printf("[%d] Error: %v (idle %s)", count, err, idle)
			continue
		}

		fmt.Printf("[%d] %-20s | %-50s | %-8s | idle %s\n",
			count,
			utils.Truncate(info.AppName, 20),
			utils.Truncate(info.WindowTitle, 50),
			det.Inspector.LastMethod(),
			idle,
		)

		parsed := p.Parse(info.AppName, info.WindowTitle)
		fmt.Printf("     category=%s parsed=%v\n", category.Categorize(info.AppName), parsed.ParsingSuccess)
	}
}
