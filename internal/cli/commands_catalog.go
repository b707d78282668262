package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/utils"

	"github.com/spf13/cobra"
)

func newVenuesCommand(deps Dependencies) *cobra.Command {
	var format string
	var filter catalog.VenueFilter

	cmd := &cobra.Command{
		Use:   "venues",
		Short: "List venues, optionally filtered by name and location.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := parseOutputFormat(format)
			if err != nil {
				return err
			}
			if err := requireCatalog(deps); err != nil {
				return err
			}
			venues, err := catalog.SearchVenues(cmd.Context(), deps.Catalog, filter, deps.now())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outFormat, venues, func(w *tabwriter.Writer) {
				_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tOPEN\tTABLES\tSTALLS")
				for _, v := range venues {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", v.ID, v.Name, v.VenueType, yesNo(v.IsOpen), v.TableCount, v.StallCount)
				}
			})
		},
	}
	addFormatFlag(cmd, &format)
	cmd.Flags().StringVar(&filter.Query, "query", "", "Match on venue name or description.")
	cmd.Flags().StringVar(&filter.Country, "country", "", "Country filter.")
	cmd.Flags().StringVar(&filter.State, "state", "", "State filter.")
	cmd.Flags().StringVar(&filter.City, "city", "", "City filter.")
	cmd.Flags().StringVar(&filter.Pincode, "pincode", "", "Postal code filter.")
	return cmd
}

func newTablesCommand(deps Dependencies) *cobra.Command {
	var format string
	var selectable bool

	cmd := &cobra.Command{
		Use:   "tables <venueId>",
		Short: "List the tables of a venue.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseOutputFormat(format)
			if err != nil {
				return err
			}
			if err := requireCatalog(deps); err != nil {
				return err
			}
			venue, err := deps.Catalog.ResolveVenue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tables := venue.Tables
			if selectable {
				tables = catalog.SelectableTables(tables)
			}
			return render(cmd.OutOrStdout(), outFormat, tables, func(w *tabwriter.Writer) {
				_, _ = fmt.Fprintln(w, "ID\tNUMBER\tSEATS\tCODE\tTYPE\tAVAILABLE\tLOCKED")
				for _, t := range tables {
					_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n", t.ID, t.Number, t.Seats, t.QRCode, t.Type, yesNo(t.IsAvailable), yesNo(t.IsLocked))
				}
			})
		},
	}
	addFormatFlag(cmd, &format)
	cmd.Flags().BoolVar(&selectable, "selectable", false, "Only tables a guest may be seated at.")
	return cmd
}

func newMenuCommand(deps Dependencies) *cobra.Command {
	var format string
	var stallID string
	var diet string
	var query string
	var tag string

	cmd := &cobra.Command{
		Use:   "menu <venueId>",
		Short: "Show a venue menu, or one stall's menu for food courts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseOutputFormat(format)
			if err != nil {
				return err
			}
			filter := catalog.DietaryFilter(strings.ToLower(strings.TrimSpace(diet)))
			if !filter.Valid() {
				return fmt.Errorf("unknown diet %q: use all, veg or nonveg", diet)
			}
			if err := requireCatalog(deps); err != nil {
				return err
			}
			venue, err := deps.Catalog.ResolveVenue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if stallID != "" {
				if _, ok := venue.Stall(stallID); !ok {
					return fmt.Errorf("stall %s not found in %s", stallID, venue.Name)
				}
				venue.CurrentStallID = stallID
			}
			if venue.IsFoodCourt() && venue.CurrentStallID == "" {
				return fmt.Errorf("%s is a food court: pick a stall with --stall", venue.Name)
			}
			view := catalog.BuildMenuView(catalog.EffectiveMenu(venue), catalog.MenuQuery{Diet: filter, Query: query, Tag: tag})
			return render(cmd.OutOrStdout(), outFormat, view, func(w *tabwriter.Writer) {
				_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tAVAILABLE")
				for _, item := range view.Items {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.Name, item.Category, utils.FormatMoney(item.Price, ""), yesNo(item.Available))
				}
			})
		},
	}
	addFormatFlag(cmd, &format)
	cmd.Flags().StringVar(&stallID, "stall", "", "Stall id for food courts.")
	cmd.Flags().StringVar(&diet, "diet", "all", "Dietary filter: all, veg or nonveg.")
	cmd.Flags().StringVar(&query, "query", "", "Match on item name or description.")
	cmd.Flags().StringVar(&tag, "tag", "", "Only items with this tag.")
	return cmd
}
