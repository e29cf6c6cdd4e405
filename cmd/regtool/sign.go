package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BEASTY2K3/marathon-registration/internal/payments"

	"github.com/spf13/cobra"
)

func signCmd() *cobra.Command {
	var orderID, paymentID, secret string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the checkout signature for an order/payment pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("RAZORPAY_KEY_SECRET")
			}
			if secret == "" {
				return errors.New("--secret or RAZORPAY_KEY_SECRET is required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), payments.Sign(secret, orderID, paymentID))
			return nil
		},
	}

	cmd.Flags().StringVar(&orderID, "order", "", "Provider order id")
	cmd.Flags().StringVar(&paymentID, "payment", "", "Provider payment id")
	cmd.Flags().StringVar(&secret, "secret", "", "Key secret (default $RAZORPAY_KEY_SECRET)")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("payment")

	return cmd
}
