package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tournevent/lalamove/pkg/lalamove"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List the cities and services of the configured market",
	Args:  cobra.NoArgs,
	RunE: withAPI(func(cmd *cobra.Command, api lalamove.APIClient, args []string) error {
		cities, err := api.Cities(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cities)
	}),
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Request a quotation (reads a v3 quotation request as JSON)",
	Args:  cobra.NoArgs,
	RunE: withAPI(func(cmd *cobra.Command, api lalamove.APIClient, args []string) error {
		var req lalamove.QuotationRequest
		if err := readInput(cmd, &req); err != nil {
			return err
		}
		if req.SpecialRequests == nil {
			req.SpecialRequests = []string{}
		}
		quotation, err := api.GetQuotation(cmd.Context(), &req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), quotation)
	}),
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Create and manage orders",
}

var orderCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Place an order (reads a v3 order request as JSON)",
	Args:  cobra.NoArgs,
	RunE: withAPI(func(cmd *cobra.Command, api lalamove.APIClient, args []string) error {
		var req lalamove.OrderRequest
		if err := readInput(cmd, &req); err != nil {
			return err
		}
		order, err := api.CreateOrder(cmd.Context(), &req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), order)
	}),
}

var orderGetCmd = &cobra.Command{
	Use:   "get ORDER_ID",
	Short: "Show an order",
	Args:  cobra.ExactArgs(1),
	RunE: withAPI(func(cmd *cobra.Command, api lalamove.APIClient, args []string) error {
		order, err := api.GetOrder(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), order)
	}),
}

var orderCancelCmd = &cobra.Command{
	Use:   "cancel ORDER_ID",
	Short: "Cancel an order",
	Args:  cobra.ExactArgs(1),
	RunE: withAPI(func(cmd *cobra.Command, api lalamove.APIClient, args []string) error {
		resp, err := api.CancelOrder(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "order %s cancelled (HTTP %d)\n", args[0], resp.StatusCode)
		return nil
	}),
}

var orderPriorityFeeCmd = &cobra.Command{
	Use:   "priority-fee ORDER_ID AMOUNT",
	Short: "Add a priority fee to an order still looking for a driver",
	Args:  cobra.ExactArgs(2),
	RunE: withAPI(func(cmd *cobra.Command, api lalamove.APIClient, args []string) error {
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil || amount <= 0 {
			return fmt.Errorf("invalid amount %q: must be a positive number", args[1])
		}
		order, err := api.AddPriorityFee(cmd.Context(), args[0], amount)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), order)
	}),
}

var orderWaitDriverCmd = &cobra.Command{
	Use:   "wait-driver ORDER_ID",
	Short: "Poll an order until a driver is assigned, then show the driver",
	Args:  cobra.ExactArgs(1),
	RunE: withAPI(func(cmd *cobra.Command, api lalamove.APIClient, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		interval, _ := cmd.Flags().GetDuration("interval")

		order, err := waitForDriver(cmd.Context(), api, args[0], interval, timeout)
		if err != nil {
			return err
		}
		driver, err := api.GetDriverDetails(cmd.Context(), order.OrderID, order.DriverID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), driver)
	}),
}

var driverCmd = &cobra.Command{
	Use:   "driver ORDER_ID DRIVER_ID",
	Short: "Show the driver assigned to an order",
	Args:  cobra.ExactArgs(2),
	RunE: withAPI(func(cmd *cobra.Command, api lalamove.APIClient, args []string) error {
		driver, err := api.GetDriverDetails(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), driver)
	}),
}

func init() {
	for _, c := range []*cobra.Command{quoteCmd, orderCreateCmd} {
		c.Flags().StringP("file", "f", "-", "JSON request file, - for stdin")
	}
	orderWaitDriverCmd.Flags().Duration("timeout", 5*time.Minute, "give up after this long")
	orderWaitDriverCmd.Flags().Duration("interval", 5*time.Second, "time between polls")

	orderCmd.AddCommand(orderCreateCmd, orderGetCmd, orderCancelCmd, orderPriorityFeeCmd, orderWaitDriverCmd)
	rootCmd.AddCommand(citiesCmd, quoteCmd, orderCmd, driverCmd)
}

type apiRunFunc func(cmd *cobra.Command, api lalamove.APIClient, args []string) error

// withAPI loads configuration and hands the Lalamove API client to fn.
func withAPI(fn apiRunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := initLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		return fn(cmd, newAPIClient(cfg.Lalamove(), logger), args)
	}
}

func newAPIClient(cfg lalamove.Config, logger *otelzap.Logger) lalamove.APIClient {
	return lalamove.New(cfg, logger, nil).API()
}

func readInput(cmd *cobra.Command, v any) error {
	path, _ := cmd.Flags().GetString("file")

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening request file: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
