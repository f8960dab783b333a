package cmd

import (
	"github.com/adirahman/ceritakita-go/internal/syncer"
	"github.com/spf13/cobra"
)

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "List stories, from the API when online or the offline cache otherwise",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		view := &termView{out: cmd.OutOrStdout()}
		orch := syncer.New(a.client, a.stories, a.probe, view, a.listOptions(), a.log)
		// The view has already shown the failure; returning it would
		// print it twice.
		_ = orch.LoadStories(cmd.Context())
		return nil
	},
}

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List stories saved for offline reading",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		view := &termView{out: cmd.OutOrStdout()}
		orch := syncer.New(a.client, a.stories, a.probe, view, a.listOptions(), a.log)
		_ = orch.LoadSavedStories(cmd.Context())
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <story-id>",
	Short: "Save a story for offline reading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		view := &termView{out: cmd.OutOrStdout()}
		orch := syncer.New(a.client, a.stories, a.probe, view, a.listOptions(), a.log)
		_ = orch.SaveForOffline(cmd.Context(), args[0])
		return nil
	},
}

var unsaveCmd = &cobra.Command{
	Use:   "unsave <story-id>",
	Short: "Remove a story from offline storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		view := &termView{out: cmd.OutOrStdout()}
		orch := syncer.New(a.client, a.stories, a.probe, view, a.listOptions(), a.log)
		_ = orch.DeleteFromOffline(cmd.Context(), args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the offline story storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.stories.Clear(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Offline storage cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storiesCmd, savedCmd, saveCmd, unsaveCmd, clearCmd)
}
