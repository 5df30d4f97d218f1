package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/cli"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/config"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/draft"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/payment"
)

func draftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Generate and review draft claims",
		Long: `Generate draft claims from payment documents no claim accounts for yet,
then accept or reject them.`,
	}

	cmd.AddCommand(generateDraftsCmd())
	cmd.AddCommand(listDraftsCmd())
	cmd.AddCommand(acceptDraftCmd())
	cmd.AddCommand(rejectDraftCmd())
	cmd.AddCommand(reopenDraftCmd())

	return cmd
}

func generateDraftsCmd() *cobra.Command {
	var rangeFlag string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate pending draft claims from unattached payment documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := draft.ParseRange(rangeFlag)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			generator := draft.NewGenerator(store, payment.NewProofResolver(config.ProofConfig()))
			created, err := generator.Generate(ctx, rng, time.Now().UTC())
			if err != nil {
				return err
			}

			if len(created) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No eligible documents; nothing generated."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Generated draft claims"))
			fmt.Print(cli.RenderDraftClaimsTable(created))
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d draft claim(s) created", len(created))))
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeFlag, "range", string(draft.RangeForever), "how far back to look (forever, last_month, last_week)")

	return cmd
}

func listDraftsCmd() *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List draft claims",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			drafts, err := store.GetAllDraftClaims(ctx)
			if err != nil {
				return fmt.Errorf("failed to load draft claims: %w", err)
			}

			if statusFilter != "" {
				filtered := make([]model.DraftClaim, 0, len(drafts))
				for _, d := range drafts {
					if string(d.Status) == statusFilter {
						filtered = append(filtered, d)
					}
				}
				drafts = filtered
			}

			fmt.Print(cli.RenderDraftClaimsTable(drafts))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "filter by status (pending, accepted, rejected)")

	return cmd
}

func acceptDraftCmd() *cobra.Command {
	var input draft.AcceptInput

	cmd := &cobra.Command{
		Use:   "accept <draft-id>",
		Short: "Accept a pending draft claim",
		Long: `Accept a pending draft claim. Requires an illness, doctor notes, payment
proof evidence, and a treatment date: either --date or at least one
--calendar document (the earliest dated one wins).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			lifecycle := draft.NewLifecycle(store)
			accepted, err := lifecycle.Accept(ctx, args[0], input)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Draft claim accepted"))
			fmt.Print(cli.RenderDraftClaimDetail(accepted))
			return nil
		},
	}

	cmd.Flags().StringVar(&input.IllnessID, "illness", "", "illness to attach the draft to (required)")
	cmd.Flags().StringVar(&input.DoctorNotes, "notes", "", "doctor notes (required)")
	cmd.Flags().StringVar(&input.TreatmentDate, "date", "", "treatment date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&input.CalendarDocumentIDs, "calendar", nil, "calendar document id supplying the treatment date (repeatable)")
	cmd.Flags().StringSliceVar(&input.PaymentProofDocumentIDs, "proof", nil, "payment proof document id (repeatable)")
	cmd.Flags().StringVar(&input.PaymentProofText, "proof-text", "", "free-text payment proof")
	_ = cmd.MarkFlagRequired("illness")
	_ = cmd.MarkFlagRequired("notes")

	return cmd
}

func rejectDraftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <draft-id>",
		Short: "Reject a draft claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			lifecycle := draft.NewLifecycle(store)
			rejected, err := lifecycle.Reject(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Draft claim rejected"))
			fmt.Print(cli.RenderDraftClaimDetail(rejected))
			return nil
		},
	}
}

func reopenDraftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <draft-id>",
		Short: "Reopen a rejected or accepted draft claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			lifecycle := draft.NewLifecycle(store)
			reopened, err := lifecycle.MarkPending(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Draft claim reopened"))
			fmt.Print(cli.RenderDraftClaimDetail(reopened))
			return nil
		},
	}
}
