package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dyuri/dialface/internal/chrono"
	"github.com/dyuri/dialface/internal/hands"
	"github.com/dyuri/dialface/internal/store"
)

// chrono command
var chronoCmd = &cobra.Command{
	Use:   "chrono <start|stop|lap|reset|show>",
	Short: "Drive the stopwatch persisted in a store",
	Long: `Drive the stopwatch state persisted in a SQLite store, the same
state a face restores when it starts.

start and stop toggle the stopwatch, lap records a lap (or resumes the
display after one), reset clears a stopped stopwatch.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "stop", "lap", "reset", "show"},
	RunE:      runChrono,
}

var chronoTime timeValue

func init() {
	chronoCmd.Flags().String("store", "", "SQLite file holding the stopwatch state (required)")
	chronoCmd.MarkFlagRequired("store")
	addTimeFlag(chronoCmd.Flags(), &chronoTime)
}

func runChrono(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")

	db, err := store.OpenSQLite(storePath)
	if err != nil {
		return err
	}
	defer db.Close()

	now := hands.MSOfDay(chronoTime.Time())
	d := chrono.New(logrus.StandardLogger())
	if err := d.Load(db, now); err != nil {
		return fmt.Errorf("load stopwatch: %w", err)
	}

	switch args[0] {
	case "start":
		if d.Running {
			return fmt.Errorf("stopwatch already running")
		}
		d.StartStop(now)
	case "stop":
		if !d.Running {
			return fmt.Errorf("stopwatch not running")
		}
		d.StartStop(now)
	case "lap":
		d.Lap(now, false)
	case "reset":
		if d.Running {
			return fmt.Errorf("stop the stopwatch before resetting it")
		}
		d.Reset()
	case "show":
	default:
		return fmt.Errorf("unknown chrono action: %s", args[0])
	}

	if err := d.Save(db); err != nil {
		return fmt.Errorf("save stopwatch: %w", err)
	}

	state := "stopped"
	switch {
	case d.Counting():
		state = "running"
	case d.Running:
		state = "lap"
	}
	fmt.Printf("%s %s\n", d.Digital(now), state)
	for i := chrono.MaxLaps - 1; i >= 0; i-- {
		if lap := d.LapString(i); lap != "" {
			fmt.Printf("  lap %s\n", lap)
		}
	}
	return nil
}
