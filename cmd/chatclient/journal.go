package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/comigor/chatclient/internal/config"
	"github.com/comigor/chatclient/internal/journal"
	"github.com/comigor/chatclient/internal/logger"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print the events recorded in the journal",
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().String("session", "", "only show this session id")
	journalCmd.Flags().Bool("json", false, "print one JSON object per line")
}

func runJournal(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Log.Level)
	logger.SetOutput(cmd.ErrOrStderr())

	if cfg.Journal.Path == "" {
		return errors.New("journal.path is not configured")
	}
	sessionID, _ := cmd.Flags().GetString("session")
	asJSON, _ := cmd.Flags().GetBool("json")

	j := journal.Open(cfg.Journal.Path)
	defer j.Close()

	return printRecords(cmd.OutOrStdout(), j.List(sessionID), asJSON)
}

func printRecords(w io.Writer, records []journal.Record, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s %s %-3s %-6s", r.CreatedAt.Local().Format(time.DateTime), r.SessionID, r.Direction, r.Kind)
		if r.MessageID != "" {
			line += " [" + r.MessageID + "]"
		}
		if r.Prefix != "" || r.Payload != "" {
			line += " " + r.Prefix + r.Payload
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
