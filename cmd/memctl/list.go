package main

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	memclient "github.com/zcf0508/mem-mcp/client"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			c, err := newClient()
			if err != nil {
				return err
			}
			summaries, err := c.List(context.Background())
			if err != nil {
				return err
			}
			for _, s := range filterSummaries(summaries, filter) {
				fmt.Printf("%-40s %-4s %s  %s\n", s.Filename, s.Priority, s.LastAccessedAt.Format("2006-01-02"), s.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringP("filter", "f", "", "Client-side fuzzy filter on filename and title")
	return cmd
}

// filterSummaries narrows the listing client-side with a fuzzy match over
// filename and title, ranked best-first.
func filterSummaries(summaries []memclient.MemorySummary, filter string) []memclient.MemorySummary {
	if filter == "" {
		return summaries
	}
	haystack := make([]string, len(summaries))
	for i, s := range summaries {
		haystack[i] = s.Filename + " " + s.Title
	}
	matches := fuzzy.Find(filter, haystack)
	out := make([]memclient.MemorySummary, 0, len(matches))
	for _, m := range matches {
		out = append(out, summaries[m.Index])
	}
	return out
}
