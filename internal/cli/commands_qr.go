package cli

import (
	"fmt"
	"text/tabwriter"

	"qrdine-order-service/internal/qr"
	"qrdine-order-service/internal/scan"

	"github.com/spf13/cobra"
)

type decodeResult struct {
	Payload      qr.Payload `json:"payload" yaml:"payload"`
	VenueName    string     `json:"venueName,omitempty" yaml:"venueName,omitempty"`
	TableID      string     `json:"tableId,omitempty" yaml:"tableId,omitempty"`
	TableNumber  int        `json:"tableNumber,omitempty" yaml:"tableNumber,omitempty"`
	TableMatched bool       `json:"tableMatched" yaml:"tableMatched"`
}

func newDecodeCommand(deps Dependencies) *cobra.Command {
	var format string
	var offline bool

	cmd := &cobra.Command{
		Use:   "decode <payload>",
		Short: "Decode a table QR payload and resolve its venue and table.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseOutputFormat(format)
			if err != nil {
				return err
			}
			payload, err := qr.Parse(args[0])
			if err != nil {
				return err
			}
			result := decodeResult{Payload: payload}
			if !offline {
				if err := requireCatalog(deps); err != nil {
					return err
				}
				res, err := scan.Resolve(cmd.Context(), deps.Catalog, payload)
				if err != nil {
					return err
				}
				result.VenueName = res.Venue.Name
				result.TableID = res.Table.ID
				result.TableNumber = res.Table.Number
				result.TableMatched = res.TableMatched
			}
			return render(cmd.OutOrStdout(), outFormat, result, func(w *tabwriter.Writer) {
				_, _ = fmt.Fprintf(w, "venue\t%s\n", payload.VenueID)
				_, _ = fmt.Fprintf(w, "table code\t%s\n", payload.TableCode)
				if !offline {
					_, _ = fmt.Fprintf(w, "venue name\t%s\n", result.VenueName)
					_, _ = fmt.Fprintf(w, "table\t%s (#%d)\n", result.TableID, result.TableNumber)
					_, _ = fmt.Fprintf(w, "matched\t%s\n", yesNo(result.TableMatched))
				}
			})
		},
	}
	addFormatFlag(cmd, &format)
	cmd.Flags().BoolVar(&offline, "offline", false, "Only parse the payload; skip the catalog lookup.")
	return cmd
}

func newLinkCommand() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "link <venueId> [tableCode]",
		Short: "Print the scan URL to encode on a table card.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := qr.Payload{VenueID: args[0]}
			if len(args) == 2 {
				payload.TableCode = args[1]
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), qr.Link(base, payload))
			return err
		},
	}
	cmd.Flags().StringVar(&base, "base", "https://qrdine.app", "Base URL of the ordering site.")
	return cmd
}
