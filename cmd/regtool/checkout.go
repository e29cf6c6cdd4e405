package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/checkout"

	"github.com/spf13/cobra"
)

func checkoutCmd() *cobra.Command {
	var (
		baseURL string
		secret  string
		amount  int64
		event   string
		timeout time.Duration
		form    checkout.Form
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Register a participant end to end against a server using the stub provider",
		Long: `Runs the same steps as the registration page: fetch the key, create an order,
complete the payment with a locally signed result, verify it and register.
The server must run with PAYMENT_PROVIDER=stub and the same key secret.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("RAZORPAY_KEY_SECRET")
			}
			if secret == "" {
				return errors.New("--secret or RAZORPAY_KEY_SECRET is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := checkout.New(baseURL, amount, event)
			out, err := client.Register(ctx, form, checkout.SigningWidget{Secret: secret})

			var rejected *checkout.RejectedError
			switch {
			case errors.As(err, &rejected):
				return fmt.Errorf("registration failed: %s", rejected.Message)
			case err != nil:
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			fmt.Fprintf(cmd.OutOrStdout(), "Chest number: %d\n", out.ChestNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:5000/api", "API base URL")
	cmd.Flags().StringVar(&secret, "secret", "", "Key secret (default $RAZORPAY_KEY_SECRET)")
	cmd.Flags().Int64Var(&amount, "amount", 499, "Amount the page requests, in major units")
	cmd.Flags().StringVar(&event, "event", "Polo Marathon", "Event name shown in the widget")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	cmd.Flags().StringVar(&form.Name, "name", "", "Participant name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Participant email")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Participant phone")
	cmd.Flags().StringVar(&form.Age, "age", "", "Participant age")
	cmd.Flags().StringVar(&form.Gender, "gender", "", "Participant gender")
	cmd.Flags().StringVar(&form.Category, "category", "", "Race category")
	for _, f := range []string{"name", "email", "phone", "age", "gender", "category"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}
