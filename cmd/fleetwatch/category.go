package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage node categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a new category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, store, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		category, err := mgr.CreateCategory(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Category created: %s (%s)\n", category.Name, category.ID)
		return nil
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, store, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		categories, err := mgr.ListCategories()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED")
		for _, c := range categories {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var categoryRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a category (fails while nodes are attached)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, store, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := mgr.DeleteCategory(args[0]); err != nil {
			return err
		}
		fmt.Printf("Category removed: %s\n", args[0])
		return nil
	},
}

func init() {
	categoryCmd.PersistentFlags().String("data-dir", "./data", "Data directory")

	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryRemoveCmd)
}
