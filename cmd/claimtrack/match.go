package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/cli"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/config"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/engine"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/service"
)

// matchGuard prevents overlapping batch passes within one process.
var matchGuard common.RunGuard

func matchCmd() *cobra.Command {
	var (
		matchAll    bool
		documentIDs []string
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match documents against insurer claims",
		Long: `Score documents against every known claim and record the top matches
as candidate assignments for review. Already-reviewed document-claim pairs
are never rescored.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !matchAll && len(documentIDs) == 0 {
				return fmt.Errorf("nothing to match: pass --all or --document")
			}

			if !matchGuard.TryStart() {
				return common.ErrRematchInProgress
			}
			defer matchGuard.Done()

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matcher := engine.NewWithConfig(store, config.EngineConfig())

			var assignments []model.Assignment
			if matchAll {
				assignments, err = matchAllWithProgress(ctx, store, matcher)
			} else {
				assignments, err = matcher.MatchDocumentsByIDs(ctx, documentIDs)
			}
			if err != nil {
				return err
			}

			if len(assignments) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No candidate matches found."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Match results"))
			fmt.Print(cli.RenderAssignmentsTable(assignments))
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d assignment(s) recorded", len(assignments))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&matchAll, "all", false, "match every candidate document")
	cmd.Flags().StringSliceVar(&documentIDs, "document", nil, "document id to match (repeatable)")

	return cmd
}

// matchAllWithProgress runs the batch pass one document at a time so a
// progress bar can track it. Any failure aborts the pass.
func matchAllWithProgress(ctx context.Context, store service.Storage, matcher *engine.MatchEngine) ([]model.Assignment, error) {
	docs, err := store.GetAllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	bar := cli.NewProgressBar(len(docs), "Matching documents...", os.Stderr)

	var all []model.Assignment
	for _, doc := range docs {
		assignments, err := matcher.MatchDocumentsByIDs(ctx, []string{doc.ID})
		if err != nil {
			return nil, err
		}
		all = append(all, assignments...)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return all, nil
}
