package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
	"riskmap/internal/services/orgrating"
	"riskmap/internal/services/urlrating"
)

var showCmd = &cobra.Command{
	Use:   "show url|organization ID",
	Short: "Print the rating of a url or organization",
	Long: `Print the stored rating of a url or organization at an instant (now by
default). --history lists every stored snapshot; --preview rebuilds the
history from facts without storing it.`,
	Example: `  riskmap show url 12 --at 2021-06-01
  riskmap show organization 4 --history
  riskmap show url 12 --preview --json`,
	Args:      cobra.MatchAll(cobra.ExactArgs(2), validEntity),
	ValidArgs: []string{"url", "organization"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("id must be an integer, got %q", args[1])
		}
		f := cmd.Flags()
		history, _ := f.GetBool("history")
		preview, _ := f.GetBool("preview")
		asJSON, _ := f.GetBool("json")
		at := time.Now().UTC()
		if raw, _ := f.GetString("at"); raw != "" {
			if at, err = domain.ParseInstant(raw); err != nil {
				return fmt.Errorf("--at: %w", err)
			}
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if args[0] == "url" {
			ratings, err := urlSnapshots(cmd.Context(), store, id, at, history, preview)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, ratings)
			}
			printUrlRatings(out, ratings, !history && !preview)
			return nil
		}
		ratings, err := organizationSnapshots(cmd.Context(), store, id, at, history, preview)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, ratings)
		}
		printOrganizationRatings(out, ratings, !history && !preview)
		return nil
	},
}

func init() {
	showCmd.Flags().String("at", "", "instant to look at (RFC 3339 or YYYY-MM-DD, default now)")
	showCmd.Flags().Bool("history", false, "list every stored snapshot")
	showCmd.Flags().Bool("preview", false, "rebuild the history from facts without storing it")
	showCmd.Flags().Bool("json", false, "print JSON")
	showCmd.MarkFlagsMutuallyExclusive("history", "preview")
}

func validEntity(cmd *cobra.Command, args []string) error {
	if args[0] != "url" && args[0] != "organization" {
		return fmt.Errorf("unknown entity %q (want url or organization)", args[0])
	}
	return nil
}

func urlSnapshots(ctx context.Context, store ports.Store, id int64, at time.Time, history, preview bool) ([]domain.UrlRating, error) {
	switch {
	case preview:
		res, err := urlrating.New(store, store, logger, urlrating.Options{}, time.Now).History(ctx, id)
		return res.Ratings, err
	case history:
		if _, err := store.GetUrlFacts(ctx, id); err != nil {
			return nil, err
		}
		return store.ListUrlRatings(ctx, id)
	}
	if _, err := store.GetUrlFacts(ctx, id); err != nil {
		return nil, err
	}
	r, found, err := store.LatestUrlRating(ctx, id, at)
	if err != nil || !found {
		return nil, err
	}
	return []domain.UrlRating{r}, nil
}

func organizationSnapshots(ctx context.Context, store ports.Store, id int64, at time.Time, history, preview bool) ([]domain.OrganizationRating, error) {
	switch {
	case preview:
		return orgrating.New(store, store, store, logger, time.Now).History(ctx, id)
	case history:
		if _, err := store.GetOrganization(ctx, id); err != nil {
			return nil, err
		}
		return store.ListOrganizationRatings(ctx, id)
	}
	if _, err := store.GetOrganization(ctx, id); err != nil {
		return nil, err
	}
	r, found, err := store.LatestOrganizationRating(ctx, id, at)
	if err != nil || !found {
		return nil, err
	}
	return []domain.OrganizationRating{r}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUrlRatings(w io.Writer, ratings []domain.UrlRating, detail bool) {
	if len(ratings) == 0 {
		fmt.Fprintln(w, colorWarn("no rating"))
		return
	}
	for _, r := range ratings {
		fmt.Fprintf(w, "%s  %s  %s\n", colorMuted(r.Moment.Format(time.DateOnly)), r.Calculation.Url, formatSeverity(r.Calculation.Severity))
	}
	if !detail {
		return
	}
	calc := ratings[len(ratings)-1].Calculation
	for _, f := range calc.Findings {
		printFinding(w, "  ", f)
	}
	for _, e := range calc.Endpoints {
		fmt.Fprintf(w, "  %s %s:%d (IPv%d)  %s\n", colorInfo(e.Protocol), e.IP, e.Port, e.IPVersion, formatSeverity(e.Severity))
		for _, f := range e.Findings {
			printFinding(w, "    ", f)
		}
	}
}

func printFinding(w io.Writer, indent string, f domain.Finding) {
	note := ""
	if f.IsExplained {
		note = colorMuted(" (explained)")
	}
	fmt.Fprintf(w, "%s%-32s %s since %s%s\n", indent, f.Type, formatSeverity(f.Severity), f.Since.Format(time.DateOnly), note)
}

func printOrganizationRatings(w io.Writer, ratings []domain.OrganizationRating, detail bool) {
	if len(ratings) == 0 {
		fmt.Fprintln(w, colorWarn("no rating"))
		return
	}
	for _, r := range ratings {
		if r.IsDefault() {
			fmt.Fprintf(w, "%s  %s\n", colorMuted(r.Moment.Format(time.DateOnly)), colorMuted("unrated"))
			continue
		}
		fmt.Fprintf(w, "%s  rating=%d urls=%d  %s\n", colorMuted(r.Moment.Format(time.DateOnly)), r.Rating, r.Calculation.TotalUrls, formatSeverity(r.Calculation.Severity))
	}
	if !detail {
		return
	}
	for _, u := range ratings[len(ratings)-1].Calculation.Urls {
		fmt.Fprintf(w, "  %-40s %s\n", u.Url, formatSeverity(u.Severity))
	}
}
