package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/manager"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/fleetwatch/fleetwatch/pkg/uptime"
	"github.com/spf13/cobra"
)

// openRegistry opens the local store for administrative commands. These run
// against the data directory directly, so the server must not hold the
// database open at the same time.
func openRegistry(cmd *cobra.Command) (*manager.Manager, *storage.BoltStore, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	log.Init(log.Config{Level: log.ErrorLevel})

	store, err := storage.NewBoltStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store (is the server running?): %w", err)
	}

	clock := types.SystemClock{}
	calc := uptime.NewCalculator(store, clock)
	return manager.NewManager(store, nil, calc, clock), store, nil
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage monitored nodes",
}

var nodeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new monitored node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		categoryID, _ := cmd.Flags().GetString("category")

		mgr, store, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		node, err := mgr.CreateNode(args[0], location, categoryID)
		if err != nil {
			return err
		}

		fmt.Printf("Node registered: %s\n", node.ID)
		fmt.Printf("API key (shown once, configure the agent with it): %s\n", node.APIKey)
		return nil
	},
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored nodes with current status",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, store, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		grouped, err := mgr.GroupedNodes()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tID\tNAME\tLOCATION\tSTATUS\tUPTIME\tLAST UPDATE")
		for category, nodes := range grouped {
			for _, n := range nodes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f%%\t%s\n",
					category, n.Node.ID, n.Node.Name, n.Node.Location,
					n.Status, n.Uptime, n.LastUpdated.Format("2006-01-02 15:04:05"))
			}
		}
		return w.Flush()
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a node and its metric history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, store, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := mgr.DeleteNode(args[0]); err != nil {
			return err
		}
		fmt.Printf("Node removed: %s\n", args[0])
		return nil
	},
}

func init() {
	nodeCmd.PersistentFlags().String("data-dir", "./data", "Data directory")

	nodeAddCmd.Flags().String("location", "", "Node location")
	nodeAddCmd.Flags().String("category", "", "Category ID the node belongs to")

	nodeCmd.AddCommand(nodeAddCmd)
	nodeCmd.AddCommand(nodeListCmd)
	nodeCmd.AddCommand(nodeRemoveCmd)
}
