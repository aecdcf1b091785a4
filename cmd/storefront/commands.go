package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	ordermapper "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/ruchi-orders/internal/app/storefront"
	"github.com/Apurer/ruchi-orders/internal/storefront/backend"
	"github.com/Apurer/ruchi-orders/internal/storefront/interceptor"
	"github.com/Apurer/ruchi-orders/internal/storefront/pending"
)

// cli holds the app opened for the running command; main closes it.
type cli struct {
	app *storefront.App
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Ruchi ice-cream storefront: pending payments, order history and the offline proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			cfg, err := storefront.LoadConfig()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			c.app, err = storefront.Open(cmd.Context(), cfg)
			return err
		},
	}
	root.AddCommand(
		c.pendingCommand(),
		c.setPendingCommand(),
		c.historyCommand(),
		c.addCommand(),
		c.deliverCommand(),
		c.deleteCommand(),
		c.serveCommand(),
	)
	return root
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.app.Close(ctx)
	c.app = nil
	return err
}

func (c *cli) pendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List orders with an outstanding payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := c.app.Pending.Load(cmd.Context())
			if err != nil {
				if errors.Is(err, pending.ErrOffline) {
					fmt.Fprintln(cmd.OutOrStdout(), messageNothingOffline)
					return nil
				}
				return err
			}
			return renderPending(cmd.OutOrStdout(), view)
		},
	}
}

func (c *cli) setPendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-pending <id> <amount>",
		Short: "Record a new pending amount for an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount must be a number, got %q", args[1])
			}
			update, err := c.app.Pending.UpdatePendingAmount(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			return renderUpdate(cmd.OutOrStdout(), update)
		},
	}
}

func (c *cli) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List every order from the backend, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.app.Backend.ListOrders(cmd.Context())
			if err != nil {
				if errors.Is(err, backend.ErrOffline) {
					fmt.Fprintln(cmd.OutOrStdout(), messageHistoryOffline)
					return nil
				}
				return err
			}
			return renderHistory(cmd.OutOrStdout(), list)
		},
	}
}

func (c *cli) addCommand() *cobra.Command {
	var form struct {
		customer, address, date, flavor, quantity, cost, advance string
	}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Place a new order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := c.app.Backend.CreateOrder(cmd.Context(), ordermapper.CreateOrder{
				CustomerName:   form.customer,
				Address:        form.address,
				OrderDate:      form.date,
				Quantity:       ordermapper.NewNumeric(form.quantity),
				FlavorSize:     form.flavor,
				CostPerPiece:   ordermapper.NewNumeric(form.cost),
				AdvancePayment: ordermapper.NewNumeric(form.advance),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Total %s, pending %s (id %s)\n",
				created.Message, rupees(created.TotalPayment), rupees(created.PendingAmount), created.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&form.customer, "customer", "", "customer name")
	flags.StringVar(&form.address, "address", "", "delivery address")
	flags.StringVar(&form.date, "date", time.Now().Format("2006-01-02"), "order date (YYYY-MM-DD)")
	flags.StringVar(&form.flavor, "flavor", "", "flavor and size")
	flags.StringVar(&form.quantity, "quantity", "", "number of pieces")
	flags.StringVar(&form.cost, "cost", "", "cost per piece")
	flags.StringVar(&form.advance, "advance", "0", "advance payment")
	return cmd
}

func (c *cli) deliverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deliver <id>",
		Short: "Mark an order as delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := c.app.Backend.MarkDelivered(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func (c *cli) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := c.app.Backend.DeleteOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront through the offline proxy, with /metrics",
		Long: "Serve the storefront through the offline proxy, with /metrics.\n\n" +
			"Without ASSET_ORIGIN the proxy fronts BACKEND_URL, and with SHORT_CIRCUIT_ORDER_LIST=true " +
			"(the default) every proxied /get-orders answers with the offline placeholder body.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	app := c.app
	target := app.Config.AssetOrigin
	if target == "" {
		target = app.Config.BackendURL
	}
	origin, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse proxy origin: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", interceptor.Handler(app.Registry))
	mux.Handle("/", interceptor.NewProxy(origin, app.Registration, app.Logger))

	server := &http.Server{
		Addr:              app.Config.ListenAddr,
		Handler:           otelhttp.NewHandler(mux, "storefront.proxy"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		app.Logger.Info("storefront proxy listening",
			slog.String("addr", server.Addr), slog.String("origin", origin.String()))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.Logger.Info("shutting down storefront proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func rupees(amount float64) string {
	return "₹" + strconv.FormatFloat(amount, 'f', 2, 64)
}
