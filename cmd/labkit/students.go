package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kittclouds/labkit/pkg/directory"
	"github.com/spf13/cobra"
)

func newStudentsCmd(a *app) *cobra.Command {
	studentsCmd := &cobra.Command{
		Use:   "students",
		Short: "Manage the student directory",
	}

	var s directory.Student
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Example: `  labkit students add --id 6501 --title Mr. --first Somchai --last Jaidee \
    --email somchai@example.com --year 2 --major "Computer Science"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := s.Trimmed()
			if err := st.Validate(); err != nil {
				return err
			}
			if err := a.dir.Add(st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", st.FullName(), st.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&s.ID, "id", "", "Student id (required)")
	addCmd.Flags().StringVar(&s.TitleName, "title", "", "Title, e.g. Mr. or Ms.")
	addCmd.Flags().StringVar(&s.FirstName, "first", "", "First name (required)")
	addCmd.Flags().StringVar(&s.LastName, "last", "", "Last name (required)")
	addCmd.Flags().StringVar(&s.Email, "email", "", "Email (required)")
	addCmd.Flags().IntVar(&s.Year, "year", 1, "Year of study")
	addCmd.Flags().StringVar(&s.Major, "major", "", "Major")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every student in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStudents(cmd.OutOrStdout(), a.dir.All())
		},
	}

	var byID, byName, byMajor, byEmail string
	findCmd := &cobra.Command{
		Use:   "find",
		Short: "Find students by id, name, major or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case cmd.Flags().Changed("id"):
				st, ok := a.dir.FindByID(byID)
				return printOne(cmd.OutOrStdout(), st, ok)
			case cmd.Flags().Changed("email"):
				st, ok := a.dir.FindByEmail(byEmail)
				return printOne(cmd.OutOrStdout(), st, ok)
			case cmd.Flags().Changed("name"):
				return printStudents(cmd.OutOrStdout(), a.dir.FindByName(byName))
			case cmd.Flags().Changed("major"):
				return printStudents(cmd.OutOrStdout(), a.dir.FindByMajor(byMajor))
			}
			return errors.New("one of --id, --name, --major or --email is required")
		},
	}
	findCmd.Flags().StringVar(&byID, "id", "", "Exact student id")
	findCmd.Flags().StringVar(&byName, "name", "", "Substring of first or last name")
	findCmd.Flags().StringVar(&byMajor, "major", "", "Substring of major")
	findCmd.Flags().StringVar(&byEmail, "email", "", "Exact email")
	findCmd.MarkFlagsMutuallyExclusive("id", "name", "major", "email")

	searchCmd := &cobra.Command{
		Use:   "search [keywords...]",
		Short: "Search names, majors and emails for any keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.dir.Search(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printStudents(cmd.OutOrStdout(), found)
		},
	}

	studentsCmd.AddCommand(addCmd, listCmd, findCmd, searchCmd)
	return studentsCmd
}

func printOne(w io.Writer, st directory.Student, ok bool) error {
	if !ok {
		return printStudents(w, nil)
	}
	return printStudents(w, []directory.Student{st})
}

func printStudents(w io.Writer, list []directory.Student) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no students found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tYEAR\tMAJOR")
	for _, st := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", st.ID, st.FullName(), st.Email, st.Year, st.Major)
	}
	return tw.Flush()
}
