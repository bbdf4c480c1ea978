package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/report"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage your categories",
	}
	cmd.AddCommand(categoriesListCmd(), categoriesAddCmd(), categoriesRemoveCmd())
	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cats, err := s.engine.ListCategories(cmd.Context(), s.user)
			if err != nil {
				return err
			}
			return report.CategoryTable(cats).Render(cmd.OutOrStdout(), cli.TableHeaderStyle)
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Long: `Add a category. Names are compared without regard to case, so "food"
is refused when "Food" exists. The first letter is stored upper-cased.`,
		Example: `  tally categories add Groceries
  tally categories add --kind deposit Side gigs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := categoryKindFromFlags(cmd)
			if err != nil {
				return err
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cat, err := s.engine.AddCategory(cmd.Context(), s.user, strings.Join(args, " "), kind)
			if err != nil {
				return err
			}
			printLine(cmd, cli.FormatSuccess("Added category "+cat.Name))
			return nil
		},
	}
	cmd.Flags().String("kind", string(model.CategoryKindSpending), "Category kind: spending or deposit")
	cmd.Flags().Bool("deposit", false, "Shorthand for --kind deposit")
	return cmd
}

func categoryKindFromFlags(cmd *cobra.Command) (model.CategoryKind, error) {
	if deposit, _ := cmd.Flags().GetBool("deposit"); deposit {
		return model.CategoryKindDeposit, nil
	}
	raw, _ := cmd.Flags().GetString("kind")
	return model.ParseCategoryKind(raw)
}

func categoriesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an unused category",
		Long:  `Remove a category you added. Default categories and categories used by a transaction cannot be removed.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			name := strings.Join(args, " ")
			if err := s.engine.RemoveCategory(cmd.Context(), s.user, name); err != nil {
				return err
			}
			printLine(cmd, cli.FormatSuccess("Removed category "+name))
			return nil
		},
	}
}
