package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailmind/internal/indexer"
	"github.com/nhle/mailmind/internal/mailbox"
	"github.com/nhle/mailmind/internal/model"
	"github.com/nhle/mailmind/internal/provider"
	"github.com/nhle/mailmind/internal/record"
	"github.com/nhle/mailmind/internal/vectorstore"
)

const dateLayout = "2006-01-02"

func newIndexCmd() *cobra.Command {
	var startDate, endDate string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Fetch mail over a date range and build the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(dateLayout, startDate)
			if err != nil {
				return fmt.Errorf("invalid --start date %q (want YYYY-MM-DD): %w", startDate, err)
			}
			end, err := time.Parse(dateLayout, endDate)
			if err != nil {
				return fmt.Errorf("invalid --end date %q (want YYYY-MM-DD): %w", endDate, err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runIndex(cmd, cfg, start, end)
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD, inclusive)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runIndex(cmd *cobra.Command, cfg *model.Config, start, end time.Time) error {
	ctx := cmd.Context()

	client := mailbox.NewClient(
		cfg.Mailbox.Host, cfg.Mailbox.Port,
		cfg.Mailbox.Address, cfg.Mailbox.Password,
		cfg.Mailbox.TLS,
	)

	slog.Info("fetching mail",
		"account", cfg.Mailbox.Address,
		"start", start.Format(dateLayout),
		"end", end.Format(dateLayout),
	)

	rawMessages, err := client.FetchRange(ctx, start, end)
	if err != nil {
		return err
	}

	records := make([]model.EmailRecord, 0, len(rawMessages))
	for _, raw := range rawMessages {
		records = append(records, record.Build(mailbox.Decode(raw)))
	}

	slog.Info("fetched mail", "messages", len(records))

	prov, err := provider.New(cfg.Provider)
	if err != nil {
		return err
	}

	store, err := vectorstore.Open(cfg.Store.PersistDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ix := indexer.NewIndexer(prov, store, cfg.Store.Collection)
	indexed, err := ix.Index(ctx, records)
	if err != nil {
		return err
	}

	slog.Info("index built",
		"indexed", indexed,
		"collection", cfg.Store.Collection,
		"dir", cfg.Store.PersistDir,
	)

	return nil
}
