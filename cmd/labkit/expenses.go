package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kittclouds/labkit/internal/store"
	"github.com/kittclouds/labkit/pkg/expense"
	"github.com/spf13/cobra"
)

func newExpensesCmd(a *app) *cobra.Command {
	expensesCmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"exp"},
		Short:   "Track income and expenses",
	}

	addForm := expense.NewForm()
	addCmd := &cobra.Command{
		Use:     "add",
		Short:   "Record an income or expense",
		Example: `  labkit expenses add --title Lunch --amount 80 --type expense --category food`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.expense.Add(cmd.Context(), addForm)
			if err != nil {
				return errors.New(expense.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", e.ID)
			return nil
		},
	}
	formFlags(addCmd, &addForm)

	var editForm expense.Form
	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an entry; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			current, err := a.expense.Get(ctx, args[0])
			if err != nil {
				return errors.New(expense.UserMessage(err))
			}

			f := expense.FormFrom(current)
			flags := cmd.Flags()
			if flags.Changed("type") {
				f.SetType(editForm.Type)
			}
			if flags.Changed("title") {
				f.Title = editForm.Title
			}
			if flags.Changed("amount") {
				f.Amount = editForm.Amount
			}
			if flags.Changed("category") {
				f.Category = editForm.Category
			}
			if flags.Changed("note") {
				f.Note = editForm.Note
			}

			if err := a.expense.Update(ctx, args[0], f); err != nil {
				return errors.New(expense.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", args[0])
			return nil
		},
	}
	formFlags(editCmd, &editForm)

	deleteCmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.expense.Delete(cmd.Context(), args[0]); err != nil {
				return errors.New(expense.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.expense.List(cmd.Context())
			if err != nil {
				return err
			}
			return printExpenses(cmd.OutOrStdout(), list)
		},
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show total income, expense and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := a.expense.Summary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "income:  %.2f\nexpense: %.2f\nbalance: %.2f\n",
				sum.Income, sum.Expense, sum.Balance)
			return nil
		},
	}

	categoriesCmd := &cobra.Command{
		Use:       "categories [income|expense]",
		Short:     "List the categories for a type",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(store.TypeIncome), string(store.TypeExpense)},
		RunE: func(cmd *cobra.Command, args []string) error {
			t := store.TypeExpense
			if len(args) == 1 {
				t = store.ExpenseType(args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(expense.Categories(t), "\n"))
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write every entry and stored value to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.db.Export()
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], data, 0o644)
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the database contents with an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return a.db.Import(data)
		},
	}

	expensesCmd.AddCommand(addCmd, editCmd, deleteCmd, listCmd, summaryCmd, categoriesCmd, exportCmd, importCmd)
	return expensesCmd
}

func formFlags(cmd *cobra.Command, f *expense.Form) {
	cmd.Flags().StringVar(&f.Title, "title", f.Title, "Title")
	cmd.Flags().StringVar(&f.Amount, "amount", f.Amount, "Amount, greater than zero")
	cmd.Flags().StringVar(&f.Type, "type", f.Type, "income or expense")
	cmd.Flags().StringVar(&f.Category, "category", f.Category, "Category for the type (see: labkit expenses categories)")
	cmd.Flags().StringVar(&f.Note, "note", f.Note, "Free-form note")
}

func printExpenses(w io.Writer, list []*store.Expense) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no entries yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tTITLE")
	for _, e := range list {
		sign := "-"
		if e.Type == store.TypeIncome {
			sign = "+"
		}
		date := time.UnixMilli(e.CreatedAt).Format("2006-01-02 15:04")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%.2f\t%s\n", e.ID, date, e.Type, e.Category, sign, e.Amount, e.Title)
	}
	return tw.Flush()
}
