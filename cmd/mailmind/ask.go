package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mailmind/internal/chat"
	"github.com/nhle/mailmind/internal/indexer"
	"github.com/nhle/mailmind/internal/provider"
	"github.com/nhle/mailmind/internal/vectorstore"
)

func newAskCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer questions about indexed mail",
		Long: `ask answers a single question when given as an argument, or starts
an interactive session with conversational history when run without one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if k <= 0 {
				k = cfg.Query.RetrievalCount
			}

			prov, err := provider.New(cfg.Provider)
			if err != nil {
				return err
			}

			store, err := vectorstore.OpenExisting(cfg.Store.PersistDir)
			if err != nil {
				return err
			}
			defer store.Close()

			retriever := indexer.NewRetriever(prov, store, cfg.Store.Collection)
			engine := chat.NewEngine(prov)

			if len(args) == 1 {
				return askOnce(cmd, retriever, engine, args[0], k)
			}
			return askInteractive(cmd, retriever, engine, k)
		},
	}

	cmd.Flags().IntVarP(&k, "count", "k", 0, "number of emails to retrieve as context")

	return cmd
}

// askOnce answers a single question without conversational history.
func askOnce(
	cmd *cobra.Command,
	retriever *indexer.Retriever,
	engine *chat.Engine,
	question string,
	k int,
) error {
	ctx := cmd.Context()

	results, err := retriever.Retrieve(ctx, question, k)
	if err != nil {
		return err
	}

	answer, err := engine.Answer(ctx, indexer.BuildContext(results), question, nil)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

// askInteractive runs a question loop with a session-scoped history,
// so follow-up questions can refer to earlier turns.
func askInteractive(
	cmd *cobra.Command,
	retriever *indexer.Retriever,
	engine *chat.Engine,
	k int,
) error {
	ctx := cmd.Context()
	history := chat.NewHistory()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Ask about your mail. Type 'exit' to quit.")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		results, err := retriever.Retrieve(ctx, question, k)
		if err != nil {
			return err
		}

		answer, err := engine.Answer(ctx, indexer.BuildContext(results), question, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(answer)
		fmt.Println()
	}

	return scanner.Err()
}
