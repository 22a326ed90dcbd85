package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	memclient "github.com/zcf0508/mem-mcp/client"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "memctl",
		Short: "CLI client for the mem-mcp memory service REST API",
	}
)

func newClient() (*memclient.Client, error) {
	if tokenFlag == "" {
		return nil, fmt.Errorf("--token required")
	}
	return memclient.New(apiFlag, tokenFlag)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Memory service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "User token")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newRecallCmd())
	rootCmd.AddCommand(newSaveCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newArchiveCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Retrieve memories, optionally filtered by a fuzzy query",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			archived, _ := cmd.Flags().GetBool("archive")
			c, err := newClient()
			if err != nil {
				return err
			}
			var results []string
			if archived {
				results, err = c.SearchArchive(context.Background(), query)
			} else {
				results, err = c.Recall(context.Background(), query)
			}
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Println(r)
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringP("query", "q", "", "Search query text")
	cmd.Flags().Bool("archive", false, "Search the archive instead of active memories")
	return cmd
}

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <title>",
		Short: "Save a memory; body is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, _ := cmd.Flags().GetString("priority")
			body, err := readStdin()
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			filename, err := c.Save(context.Background(), args[0], body, priority)
			if err != nil {
				return err
			}
			fmt.Println(filename)
			return nil
		},
	}
	cmd.Flags().StringP("priority", "p", "", "Priority: P0, P1, or P2 (default P2)")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <filename>",
		Short: "Permanently delete a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return c.Delete(context.Background(), args[0])
		},
	}
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <filename>",
		Short: "Move a memory to the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return c.Archive(context.Background(), args[0])
		},
	}
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the retention sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			c, err := newClient()
			if err != nil {
				return err
			}
			result, err := c.Sweep(context.Background(), dryRun)
			if err != nil {
				return err
			}
			fmt.Printf("archived: %d kept: %d\n", len(result.Archived), len(result.Kept))
			for _, name := range result.Archived {
				fmt.Println("  ->", name)
			}
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Classify without moving files")
	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Mint a fresh user token",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(uuid.New().String())
		},
	})
	return cmd
}

func readStdin() (string, error) {
	buf, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(buf), nil
}
