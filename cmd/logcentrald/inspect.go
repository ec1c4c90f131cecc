package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Philipp01105/logging-framework/core"
	"github.com/Philipp01105/logging-framework/internal/config"
	"github.com/Philipp01105/logging-framework/internal/storage"
)

var (
	inspectApplication string
	inspectLevel       string
	inspectLimit       int
)

// inspectCmd is a one-shot diagnostic command over the storage sink's
// read-back methods. It is deliberately not an interactive console: it
// prints today's matching records for one application and exits.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print today's persisted records for one application",
	Run:   runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectApplication, "application", "", "Application name to read back (required)")
	inspectCmd.Flags().StringVar(&inspectLevel, "min-level", "", "Only show records at or above this level (optional)")
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 0, "Maximum number of records to print (0 = unlimited)")
	inspectCmd.MarkFlagRequired("application")
}

func runInspect(cmd *cobra.Command, args []string) {
	cfg := config.Load(configPath, zap.NewNop())

	sink, err := storage.New(cfg.StorageDirectory, zap.NewNop())
	handleFatal(err, "failed to open storage sink")
	defer sink.Close()

	var records []*core.Record
	if inspectLevel != "" {
		records, err = sink.GetByLevel(inspectApplication, core.ParseLevel(inspectLevel), inspectLimit)
	} else {
		records, err = sink.GetByApplication(inspectApplication, inspectLimit)
	}
	handleFatal(err, "failed to read back records")

	for _, r := range records {
		fmt.Printf("[%s] %s %s %s - %s\n", r.Timestamp.Format("2006-01-02 15:04:05.000"), r.Level, r.Application, r.Hostname, r.Message)
	}
	fmt.Println(strconv.Itoa(len(records)) + " record(s)")
}
