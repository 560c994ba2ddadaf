package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mpvd:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mpvd",
		Short:         "HTTP control daemon for libmpv player instances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newCheckCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mpvd version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mpvd", version)
		},
	}
}

func newCheckCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Load libmpv and print its version",
		Example: "  mpvd check\n  mpvd check --libmpv /usr/lib/libmpv.so.2",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "libmpv %s (%s)\n", eng.Version(), eng.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "libmpv", os.Getenv("MPVD_LIBMPV"), "Path to the libmpv shared library (default: search system paths)")
	return cmd
}
