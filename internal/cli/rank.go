package cli

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	httpapi "github.com/denisok6893-rgb/crm-lead-matching/internal/http"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/matching"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/storage"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	rankLeadID    string
	rankListingID string
	rankLimit     int
	scoreLeadID   string
	scoreListing  string
)

//nolint:gochecknoglobals // Cobra boilerplate
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank stored records against each other",
}

//nolint:gochecknoglobals // Cobra boilerplate
var rankListingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Rank active listings for a lead",
	Long: `Prints the active listings that best fit a lead as JSON, best first.

Example:
  crm-match rank listings --lead c-1 --limit 5`,
	RunE: runRankListings,
}

//nolint:gochecknoglobals // Cobra boilerplate
var rankLeadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Rank open leads for a listing",
	RunE:  runRankLeads,
}

//nolint:gochecknoglobals // Cobra boilerplate
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one lead against one listing",
	RunE:  runScore,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(rankCmd, scoreCmd)
	rankCmd.AddCommand(rankListingsCmd, rankLeadsCmd)

	rankListingsCmd.Flags().StringVar(&rankLeadID, "lead", "", "Lead id")
	_ = rankListingsCmd.MarkFlagRequired("lead")
	rankLeadsCmd.Flags().StringVar(&rankListingID, "listing", "", "Listing id")
	_ = rankLeadsCmd.MarkFlagRequired("listing")
	rankCmd.PersistentFlags().IntVarP(&rankLimit, "limit", "n", 0, "Maximum results (default MATCH_DEFAULT_LIMIT)")

	scoreCmd.Flags().StringVar(&scoreLeadID, "lead", "", "Lead id")
	scoreCmd.Flags().StringVar(&scoreListing, "listing", "", "Listing id")
	_ = scoreCmd.MarkFlagRequired("lead")
	_ = scoreCmd.MarkFlagRequired("listing")
}

func runRankListings(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	var a *app
	a, err = newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var lead domain.Lead
	lead, err = a.store.GetLead(ctx, rankLeadID)
	if err != nil {
		err = errors.Wrapf(err, "failed to load lead %s", rankLeadID)
		return err
	}
	var listings []domain.Listing
	listings, _, err = a.store.ListListings(ctx, storage.ListingFilter{Status: domain.ListingActive})
	if err != nil {
		err = errors.Wrap(err, "failed to load listings")
		return err
	}

	ranked := a.engine.RankListingsForLead(lead, listings)
	return printJSON(cmd, httpapi.RankedListingsResponse{
		LeadID:  lead.ID,
		Total:   len(ranked),
		Results: httpapi.DecorateListings(matching.Top(ranked, a.limit(rankLimit))),
	})
}

func runRankLeads(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	var a *app
	a, err = newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var listing domain.Listing
	listing, err = a.store.GetListing(ctx, rankListingID)
	if err != nil {
		err = errors.Wrapf(err, "failed to load listing %s", rankListingID)
		return err
	}
	var leads []domain.Lead
	leads, _, err = a.store.ListLeads(ctx, storage.LeadFilter{})
	if err != nil {
		err = errors.Wrap(err, "failed to load leads")
		return err
	}

	ranked := a.engine.RankLeadsForListing(listing, leads)
	return printJSON(cmd, httpapi.RankedLeadsResponse{
		ListingID: listing.ID,
		Total:     len(ranked),
		Results:   httpapi.DecorateLeads(matching.Top(ranked, a.limit(rankLimit))),
	})
}

func runScore(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	var a *app
	a, err = newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var lead domain.Lead
	lead, err = a.store.GetLead(ctx, scoreLeadID)
	if err != nil {
		err = errors.Wrapf(err, "failed to load lead %s", scoreLeadID)
		return err
	}
	var listing domain.Listing
	listing, err = a.store.GetListing(ctx, scoreListing)
	if err != nil {
		err = errors.Wrapf(err, "failed to load listing %s", scoreListing)
		return err
	}

	return printJSON(cmd, httpapi.ScoreResponse{
		LeadID:        lead.ID,
		RankedListing: httpapi.DecorateListing(a.engine.Score(lead, listing)),
	})
}

func (a *app) limit(flag int) int {
	if flag > 0 {
		return flag
	}
	return a.cfg.Match.DefaultLimit
}

func printJSON(cmd *cobra.Command, v any) (err error) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	err = enc.Encode(v)
	if err != nil {
		err = errors.Wrap(err, "failed to write output")
	}
	return err
}
