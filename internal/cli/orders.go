package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atelier/client/internal/catalog"
	"github.com/atelier/client/internal/client"
	"github.com/atelier/client/internal/order"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage repair orders",
	}

	cmd.AddCommand(newOrdersListCmd(a))
	cmd.AddCommand(newOrdersShowCmd(a))
	cmd.AddCommand(newOrdersCreateCmd(a))
	cmd.AddCommand(newOrdersEditCmd(a))
	cmd.AddCommand(newOrdersDeleteCmd(a))

	return cmd
}

func newOrdersListCmd(a *app) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}
			result, err := order.NewService(a.api, a.log).List(cmd.Context(), page)
			if err != nil {
				return err
			}
			for _, o := range result.Results {
				total := "-"
				if o.TotalCost != nil {
					total = o.TotalCost.StringFixed(2)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-12s  %-25s  %-15s %12s\n",
					o.ID, o.Status, o.Car, o.Urgency, total)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d orders\n", result.Count)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "page number")
	return cmd
}

func newOrdersShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}

			data := catalog.NewLoader(a.api, a.log).LoadFormData(cmd.Context())
			snap, err := order.NewService(a.api, a.log).Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			draft := order.HydrateDraft(snap, data.Services)
			fmt.Fprintf(cmd.OutOrStdout(), "Order #%d  urgency=%s  status=%d\n", snap.ID, draft.Urgency, draft.StatusID)
			for _, item := range draft.Items {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-40s %12s x %d\n",
					item.ServiceName, item.UnitPrice.StringFixed(2), item.Quantity)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %s\n", draft.Total().StringFixed(2))
			return nil
		},
	}
}

func newOrdersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			if err := order.NewService(a.api, a.log).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order #%d deleted\n", id)
			return nil
		},
	}
}

// orderFlags are the draft fields settable from the command line.
type orderFlags struct {
	client    int
	car       int
	status    int
	urgency   string
	date      string
	comment   string
	performer int
	items     []string
	removes   []int
}

func (f *orderFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.client, "client", 0, "client id")
	cmd.Flags().IntVar(&f.car, "car", 0, "car id (must belong to the client)")
	cmd.Flags().IntVar(&f.status, "status", 0, "status id (defaults to the first available)")
	cmd.Flags().StringVar(&f.urgency, "urgency", "", "urgency code: NRM, URG or VUR")
	cmd.Flags().StringVar(&f.date, "date", "", "planned completion date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.comment, "comment", "", "client comment")
	cmd.Flags().IntVar(&f.performer, "performer", 0, "performer id (0 = unassigned)")
	cmd.Flags().StringArrayVar(&f.items, "item", nil, "line item as service-id[:quantity[:comment]], repeatable")
	cmd.Flags().IntSliceVar(&f.removes, "remove-item", nil, "service id to remove from the order, repeatable")
}

// apply copies the flags that were explicitly set onto the draft, keeping
// the draft's cross-field invariants (client change clears the car).
func (f *orderFlags) apply(cmd *cobra.Command, d *order.Draft, data catalog.FormData, vehicles *catalog.VehicleLoader) error {
	ctx := cmd.Context()

	if cmd.Flags().Changed("client") {
		d.SetClient(f.client)
	}
	// The vehicle list is only needed to validate an incoming --car; an edit
	// that leaves the car alone must not depend on the cars endpoint.
	if cmd.Flags().Changed("car") {
		if err := vehicles.Load(ctx, d.ClientID); err != nil {
			return err
		}
		if !vehicles.Contains(f.car) {
			return fmt.Errorf("car %d does not belong to client %d", f.car, d.ClientID)
		}
		d.VehicleID = f.car
	}
	if cmd.Flags().Changed("status") {
		d.StatusID = f.status
	}
	if cmd.Flags().Changed("urgency") {
		u := order.Urgency(strings.ToUpper(f.urgency))
		if !u.IsValid() {
			return fmt.Errorf("invalid urgency %q", f.urgency)
		}
		d.Urgency = u
	}
	if cmd.Flags().Changed("date") {
		d.PlannedDate = f.date
	}
	if cmd.Flags().Changed("comment") {
		d.Comment = f.comment
	}
	if cmd.Flags().Changed("performer") {
		d.PerformerID = f.performer
	}

	for _, id := range f.removes {
		d.RemoveLineItem(id)
	}
	for _, spec := range f.items {
		if err := addItemSpec(d, data, spec); err != nil {
			return err
		}
	}
	return nil
}

// addItemSpec parses "service-id[:quantity[:comment]]" and adds the line.
func addItemSpec(d *order.Draft, data catalog.FormData, spec string) error {
	parts := strings.SplitN(spec, ":", 3)

	serviceID, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("invalid item %q: bad service id", spec)
	}
	quantity := 1
	if len(parts) > 1 {
		quantity, err = strconv.Atoi(parts[1])
		if err != nil || quantity < 1 {
			return fmt.Errorf("invalid item %q: bad quantity", spec)
		}
	}

	if !d.AddLineItem(serviceID, data.Services) {
		if d.HasService(serviceID) {
			return nil // already in the order
		}
		return fmt.Errorf("service %d not found in the catalog", serviceID)
	}

	item := &d.Items[len(d.Items)-1]
	item.Quantity = quantity
	if len(parts) > 2 {
		item.Comment = parts[2]
	}
	return nil
}

func newOrdersCreateCmd(a *app) *cobra.Command {
	flags := &orderFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}

			data := catalog.NewLoader(a.api, a.log).LoadFormData(cmd.Context())
			vehicles := catalog.NewVehicleLoader(a.api, a.log)

			draft := order.NewDraft()
			draft.StatusID = data.DefaultStatusID()
			if err := flags.apply(cmd, draft, data, vehicles); err != nil {
				return err
			}

			if err := order.NewSubmitter(a.api, a.log).Create(cmd.Context(), draft); err != nil {
				return submitError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order created, total %s\n", draft.Total().StringFixed(2))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newOrdersEditCmd(a *app) *cobra.Command {
	flags := &orderFlags{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a stored order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}

			data := catalog.NewLoader(a.api, a.log).LoadFormData(cmd.Context())
			vehicles := catalog.NewVehicleLoader(a.api, a.log)

			snap, err := order.NewService(a.api, a.log).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			draft := order.HydrateDraft(snap, data.Services)
			if err := flags.apply(cmd, draft, data, vehicles); err != nil {
				return err
			}

			if err := order.NewSubmitter(a.api, a.log).Update(cmd.Context(), id, draft); err != nil {
				return submitError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order #%d updated, total %s\n", id, draft.Total().StringFixed(2))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// submitError surfaces field-level validation messages to the user so the
// command can be corrected and rerun; the draft state lives in the flags.
func submitError(cmd *cobra.Command, err error) error {
	if client.IsValidation(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "The server rejected the order:")
		fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", err)
	}
	return err
}
