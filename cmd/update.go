package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/updater"
)

// CreateUpdateCmd creates the update command with its check, apply and
// rollback subcommands.
func CreateUpdateCmd() *cobra.Command {
	var opts updater.Options

	open := func() (*updater.Updater, error) {
		logging.Initialize(logging.Config{Level: "info", Format: "text"})
		return updater.New(opts, logging.GetLogger("updater"))
	}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the lightnode binary from GitHub releases",
	}
	cmd.PersistentFlags().StringVar(&opts.Repository, "repo", updater.DefaultRepository, "GitHub repository slug")
	cmd.PersistentFlags().BoolVar(&opts.Prerelease, "prerelease", false, "Include prereleases")

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Show whether a newer release exists",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			u, err := open()
			if err != nil {
				return err
			}
			info, err := u.Check(c.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, describeRelease(info))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Download the latest release and replace this binary",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			u, err := open()
			if err != nil {
				return err
			}
			info, err := u.Apply(c.Context())
			if errors.Is(err, updater.ErrNoUpdate) {
				fmt.Fprintf(os.Stdout, "Already running %s\n", info.CurrentVersion)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Updated %s -> %s, restart the service to run it\n", info.CurrentVersion, info.LatestVersion)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Restore the binary replaced by the last update",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			u, err := open()
			if err != nil {
				return err
			}
			v, err := u.Rollback()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Restored %s, restart the service to run it\n", v)
			return nil
		},
	})

	return cmd
}

func describeRelease(info updater.Info) string {
	if !info.UpdateAvailable {
		return fmt.Sprintf("Running %s, latest release is %s", info.CurrentVersion, info.LatestVersion)
	}
	return fmt.Sprintf("Update available: %s -> %s (%s, published %s)\n%s",
		info.CurrentVersion, info.LatestVersion,
		humanize.Bytes(uint64(max(info.AssetSize, 0))), humanize.Time(info.PublishedAt), info.ReleaseURL)
}
