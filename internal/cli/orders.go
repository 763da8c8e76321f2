package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/orders"
)

// NewOrdersCommand создаёт группу команд для работы с заказами.
func NewOrdersCommand(env *commandEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and manage orders",
	}

	cmd.AddCommand(newOrdersListCommand(env))
	cmd.AddCommand(newOrdersSetStatusCommand(env))
	cmd.AddCommand(newOrdersExportCommand(env))

	return cmd
}

type orderView struct {
	ID        string  `json:"id"`
	Customer  string  `json:"customer"`
	Status    string  `json:"status"`
	Total     float64 `json:"total"`
	CreatedAt string  `json:"created_at"`
}

func newOrderView(o model.Order) orderView {
	return orderView{
		ID:        o.ID,
		Customer:  o.CustomerEmail,
		Status:    o.Status.String(),
		Total:     model.FormatCents(o.Total),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeOrders(w io.Writer, format string, list []model.Order) error {
	if format == "json" {
		views := make([]orderView, 0, len(list))
		for _, o := range list {
			views = append(views, newOrderView(o))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tSTATUS\tTOTAL\tCREATED")
	for _, o := range list {
		v := newOrderView(o)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Customer, v.Status, strconv.FormatFloat(v.Total, 'f', 2, 64), v.CreatedAt)
	}
	return tw.Flush()
}

func newOrdersListCommand(env *commandEnv) *cobra.Command {
	var filter struct {
		status string
		search string
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, release, err := env.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			list, err := mgr.Load(cmd.Context(), model.OrderFilter{
				Status: model.OrderStatus(filter.status),
				Search: filter.search,
			})
			if err != nil {
				return err
			}
			return writeOrders(cmd.OutOrStdout(), env.opts.Format, list)
		},
	}

	cmd.Flags().StringVar(&filter.status, "status", "", "only orders with this status")
	cmd.Flags().StringVarP(&filter.search, "search", "q", "", "match customer email or order id")

	return cmd
}

func newOrdersSetStatusCommand(env *commandEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move an order to a new status",
		Long: `Move an order to a new status.

Allowed transitions: pending -> processing|cancelled, processing -> shipped|cancelled,
shipped -> delivered|cancelled. Delivered and cancelled orders are final.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, release, err := env.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			order, err := mgr.SetStatus(cmd.Context(), args[0], model.OrderStatus(args[1]))
			if err != nil {
				return err
			}
			return writeOrders(cmd.OutOrStdout(), env.opts.Format, []model.Order{order})
		},
	}
}

func newOrdersExportCommand(env *commandEnv) *cobra.Command {
	var (
		status string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export orders as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, release, err := env.manager(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			list, err := mgr.Load(cmd.Context(), model.OrderFilter{Status: model.OrderStatus(status)})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return orders.ExportSnapshot(cmd.OutOrStdout(), list)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := orders.ExportSnapshot(f, list); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only orders with this status")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to file instead of stdout")

	return cmd
}
