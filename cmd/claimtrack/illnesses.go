package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/cli"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

func illnessesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "illnesses",
		Short: "Manage illnesses",
		Long:  `Create and inspect illnesses that confirmed assignments and accepted draft claims attach to.`,
	}

	cmd.AddCommand(addIllnessCmd())
	cmd.AddCommand(showIllnessCmd())

	return cmd
}

func addIllnessCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new illness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if id == "" {
				id = uuid.NewString()
			}

			now := time.Now().UTC()
			illness := &model.Illness{
				ID:        id,
				Name:      args[0],
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := store.SaveIllness(ctx, illness); err != nil {
				return fmt.Errorf("failed to save illness: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created illness %q (%s)", illness.Name, illness.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "explicit illness id (default: generated)")

	return cmd
}

func showIllnessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <illness-id>",
		Short: "Show an illness and its provider accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			illness, err := store.GetIllnessByID(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", cli.HeaderStyle.Render("Illness"), illness.ID)
			fmt.Printf("  Name: %s\n", illness.Name)
			if len(illness.Accounts) == 0 {
				fmt.Println(cli.SubtleStyle.Render("  No provider accounts yet."))
				return nil
			}
			fmt.Println("  Provider accounts:")
			for _, acc := range illness.Accounts {
				if acc.Name != "" {
					fmt.Printf("    %s <%s>\n", acc.Name, acc.Email)
				} else {
					fmt.Printf("    <%s>\n", acc.Email)
				}
			}
			return nil
		},
	}
}
