package cmd

import (
	"errors"

	"github.com/adirahman/ceritakita-go/internal/push"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Manage the push notification subscription",
}

var pushSubscribeCmd = &cobra.Command{
	Use:   "subscribe <endpoint>",
	Short: "Register a push subscription for the given endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		sub, err := a.push.Subscribe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Subscribed. Endpoint: %s\n", sub.Endpoint)
		return nil
	},
}

var pushUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe",
	Short: "Remove the stored push subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.push.Unsubscribe(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Unsubscribed.")
		return nil
	},
}

var pushStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored push subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		sub, err := a.push.Current(cmd.Context())
		if err != nil {
			if errors.Is(err, push.ErrNotSubscribed) {
				cmd.Println("Not subscribed.")
				return nil
			}
			return err
		}
		cmd.Printf("Subscribed since %s\nEndpoint: %s\n", sub.CreatedAt.Local().Format("2006-01-02 15:04"), sub.Endpoint)
		return nil
	},
}

func init() {
	pushCmd.AddCommand(pushSubscribeCmd, pushUnsubscribeCmd, pushStatusCmd)
	rootCmd.AddCommand(pushCmd)
}
