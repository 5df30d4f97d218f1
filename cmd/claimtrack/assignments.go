package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/cli"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/config"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/engine"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

func assignmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignments",
		Short: "Review document-claim assignments",
		Long:  `List candidate assignments and confirm or reject them against an illness.`,
	}

	cmd.AddCommand(listAssignmentsCmd())
	cmd.AddCommand(confirmAssignmentCmd())
	cmd.AddCommand(rejectAssignmentCmd())

	return cmd
}

func listAssignmentsCmd() *cobra.Command {
	var (
		statusFilter string
		documentID   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var assignments []model.Assignment
			if documentID != "" {
				assignments, err = store.GetAssignmentsForDocument(ctx, documentID)
			} else {
				assignments, err = store.GetAllAssignments(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to load assignments: %w", err)
			}

			if statusFilter != "" {
				filtered := make([]model.Assignment, 0, len(assignments))
				for _, a := range assignments {
					if string(a.Status) == statusFilter {
						filtered = append(filtered, a)
					}
				}
				assignments = filtered
			}

			fmt.Print(cli.RenderAssignmentsTable(assignments))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "filter by status (candidate, confirmed, rejected)")
	cmd.Flags().StringVar(&documentID, "document", "", "only assignments for this document")

	return cmd
}

func confirmAssignmentCmd() *cobra.Command {
	var (
		illnessID string
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "confirm <assignment-id>",
		Short: "Confirm a candidate assignment against an illness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matcher := engine.NewWithConfig(store, config.EngineConfig())
			assignment, err := matcher.ConfirmAssignment(ctx, args[0], illnessID, notes)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Assignment confirmed"))
			fmt.Print(cli.RenderAssignmentDetail(assignment))
			return nil
		},
	}

	cmd.Flags().StringVar(&illnessID, "illness", "", "illness to attach the claim to (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "review notes")
	_ = cmd.MarkFlagRequired("illness")

	return cmd
}

func rejectAssignmentCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "reject <assignment-id>",
		Short: "Reject a candidate assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matcher := engine.NewWithConfig(store, config.EngineConfig())
			assignment, err := matcher.RejectAssignment(ctx, args[0], notes)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Assignment rejected"))
			fmt.Print(cli.RenderAssignmentDetail(assignment))
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "review notes")

	return cmd
}
