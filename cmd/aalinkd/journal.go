package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZentaChain/aalink/pkg/config"
	"github.com/ZentaChain/aalink/pkg/journal"
	"github.com/ZentaChain/aalink/pkg/logging"
)

var (
	journalChannel string
	journalLimit   int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print the most recent journaled messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfg.Journal.Path); err != nil {
			return fmt.Errorf("no journal at %s: %w", cfg.Journal.Path, err)
		}

		j, err := journal.Open(cfg.Journal.Path, 0, logging.Nop())
		if err != nil {
			return err
		}
		defer j.Close()

		entries, err := j.Recent(journalChannel, journalLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSESSION\tDIR\tCHANNEL\tID\tENC\tTYPE\tSIZE")
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			fmt.Fprintf(w, "%s\t%.8s\t%s\t%s\t0x%04x\t%s\t%s\t%d\n",
				time.Unix(0, e.Timestamp).Format("15:04:05.000"),
				e.SessionID, e.Direction, e.Channel, e.MessageID, e.Encryption, e.MessageType, e.Size)
		}
		return w.Flush()
	},
}

func init() {
	journalCmd.Flags().StringVar(&journalChannel, "channel", "", "only show this channel")
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 50, "number of entries")
	rootCmd.AddCommand(journalCmd)
}
