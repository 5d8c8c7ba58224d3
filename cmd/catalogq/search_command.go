package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"catalogstream/catalogsearch/internal/domain"
)

var errQueryTooShort = errors.New("query too short")

func newSearchCommand(factory resolverFactory) *cobra.Command {
	var kind string
	var page int
	var language string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Resolve a free-text title query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("invalid --page %d: must be at least 1", page)
			}
			query := strings.Join(args, " ")
			answer := factory(cmd.Context()).Resolve(cmd.Context(), query, domain.ParseKindFilter(kind), strconv.Itoa(page), language)
			if answer.Provenance == domain.ProvenanceTooShort {
				return errQueryTooShort
			}
			if asJSON {
				return writeJSON(cmd, answer)
			}
			renderAnswer(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", "all", "Media kind: all, movie or tv")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Result language, e.g. en-US")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw answer as JSON")
	return cmd
}

func renderAnswer(w io.Writer, answer domain.SearchAnswer) {
	fmt.Fprintf(w, "Query: %s", answer.NormalizedQuery)
	if answer.AppliedQuery != "" && answer.AppliedQuery != answer.NormalizedQuery {
		fmt.Fprintf(w, " (applied %q)", answer.AppliedQuery)
	}
	fmt.Fprintln(w)
	source := string(answer.Provenance)
	if answer.UsedFallback {
		source += ", fallback"
	}
	fmt.Fprintf(w, "Source: %s | %d results over %d pages\n", source, answer.TotalAvailable, answer.TotalPages)

	if len(answer.Items) == 0 {
		fmt.Fprintln(w, "No results.")
	} else {
		rows := make([][]string, 0, len(answer.Items))
		for i, item := range answer.Items {
			year := "-"
			if y := item.Year(); y > 0 {
				year = strconv.Itoa(y)
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				string(item.Kind),
				strconv.Itoa(item.ID),
				item.DisplayTitle,
				year,
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"#", "Kind", "ID", "Title", "Year"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
		))
	}

	if len(answer.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(answer.Suggestions, ", "))
	}
}
