package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/genre"
	"github.com/genrewiki/genrewiki-server/internal/search"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <genre-id>",
		Short: "Show a genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.genres()
			if err != nil {
				return err
			}
			g, err := svc.GetGenre(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, g)
		},
	}
}

// historyEntry is a history row with the fields it changed.
type historyEntry struct {
	*domain.GenreHistory
	Changed []string `json:"changed,omitempty"`
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <genre-id>",
		Short: "List a genre's change history, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.genres()
			if err != nil {
				return err
			}
			history, err := svc.ListHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			entries := make([]historyEntry, len(history))
			for i, h := range history {
				entries[i] = historyEntry{GenreHistory: h}
				if i > 0 {
					entries[i].Changed = h.ChangedFields(history[i-1])
				}
			}
			return printJSON(cmd, entries)
		},
	}
}

func newVotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "votes <genre-id>",
		Short: "List the relevance votes cast on a genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.genres()
			if err != nil {
				return err
			}
			votes, err := svc.ListVotes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, votes)
		},
	}
}

// treeNode is the nested rendering of the hierarchy. A genre with several
// parents appears under each of them.
type treeNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Children []*treeNode `json:"children,omitempty"`
}

func buildTree(t *genre.Tree, ids []string) []*treeNode {
	nodes := make([]*treeNode, 0, len(ids))
	for _, id := range ids {
		n, _ := t.Node(id)
		nodes = append(nodes, &treeNode{
			ID:       id,
			Name:     n.Name,
			Children: buildTree(t, t.Children(id)),
		})
	}
	return nodes
}

func writeTreeText(w io.Writer, nodes []*treeNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), n.Name, n.ID)
		writeTreeText(w, n.Children, depth+1)
	}
}

func newTreeCmd(a *app) *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the genre hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.genres()
			if err != nil {
				return err
			}
			t, err := svc.Tree(cmd.Context())
			if err != nil {
				return err
			}
			// The stored hierarchy is always acyclic, so the walk terminates.
			roots := buildTree(t, t.Roots())
			if text {
				writeTreeText(cmd.OutOrStdout(), roots, 0)
				return nil
			}
			return printJSON(cmd, roots)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "Print an indented outline instead of JSON")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		params = search.DefaultSearchParams()
		types  []string
		minRel int
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search genres by name, alternate name and description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.genres()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				params.Query = args[0]
			}
			for _, t := range types {
				params.Types = append(params.Types, domain.GenreType(strings.ToUpper(t)))
			}
			if cmd.Flags().Changed("min-relevance") {
				params.MinRelevance = &minRel
			}

			result, err := svc.SearchGenres(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	fs := cmd.Flags()
	fs.StringSliceVar(&types, "type", nil, "Only these genre types (repeatable)")
	fs.StringVar(&params.ParentID, "parent", "", "Only direct children of this genre")
	fs.BoolVar(&params.IncludeNSFW, "nsfw", false, "Include NSFW genres")
	fs.IntVar(&minRel, "min-relevance", 0, "Only genres rated at least this relevant")
	fs.IntVar(&params.Limit, "limit", params.Limit, "Maximum hits")
	fs.IntVar(&params.Offset, "offset", 0, "Hits to skip")
	fs.StringVar(&params.SortBy, "sort", params.SortBy, "Sort by relevance, name, recent or rating")
	fs.StringVar(&params.SortOrder, "order", params.SortOrder, "Sort order (asc or desc)")
	fs.BoolVar(&params.IncludeFacets, "facets", params.IncludeFacets, "Include genre type facets")
	fs.BoolVar(&params.Highlight, "highlight", params.Highlight, "Include highlighted fragments")
	return cmd
}

func newReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.searchService()
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			n, err := svc.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int{"indexed": n})
		},
	}
}
