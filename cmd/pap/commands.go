package main

import (
	"fmt"

	"github.com/drunlade/go-pap/pap"
	"github.com/spf13/cobra"
)

func newDownloadCmd(opts *options) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:     "download REMOTE_PATH",
		Aliases: []string{"get"},
		Short:   "Download a file from the server",
		Long: `Requests REMOTE_PATH from the server and saves it under the output
directory, using the file name the server suggests. The directory is
created if missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, opts, args[0], outputDir)
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Local directory to save into")
	return cmd
}

func newUploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "upload LOCAL_FILE [REMOTE_TARGET]",
		Aliases: []string{"put"},
		Short:   "Upload a file to the server",
		Long: `Sends LOCAL_FILE to the server. REMOTE_TARGET may include directories;
it defaults to the local file's base name.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			return runUpload(cmd, opts, args[0], target)
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list [REMOTE_DIR]",
		Aliases: []string{"ls"},
		Short:   "List a directory on the server",
		Long:    `Prints the entries of REMOTE_DIR (default ".") one per line, in server order.`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runList(cmd, opts, dir)
		},
	}
}

// runMode handles the short positional form "pap MODE ARGS...", where
// MODE is a mode name or its letter (d, u, l).
func runMode(cmd *cobra.Command, opts *options, outputDir string, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	mode, err := pap.ParseMode(args[0])
	if err != nil {
		return err
	}

	rest := args[1:]
	switch mode {
	case pap.ModeDownload:
		if len(rest) != 1 {
			return fmt.Errorf("%s needs exactly one REMOTE_PATH", mode)
		}
		return runDownload(cmd, opts, rest[0], outputDir)
	case pap.ModeUpload:
		if len(rest) < 1 || len(rest) > 2 {
			return fmt.Errorf("%s needs LOCAL_FILE [REMOTE_TARGET]", mode)
		}
		target := ""
		if len(rest) == 2 {
			target = rest[1]
		}
		return runUpload(cmd, opts, rest[0], target)
	default:
		if len(rest) > 1 {
			return fmt.Errorf("%s takes at most one REMOTE_DIR", mode)
		}
		dir := "."
		if len(rest) == 1 {
			dir = rest[0]
		}
		return runList(cmd, opts, dir)
	}
}

func runDownload(cmd *cobra.Command, opts *options, remotePath, outputDir string) error {
	out := newUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.quiet, opts.verbose)
	client, cleanup, err := opts.newClient(cmd, out, pap.ModeDownload)
	if err != nil {
		return err
	}
	defer cleanup()

	out.verbosef("Connecting to %s as %q...\n", client.Address(), opts.user)
	out.verbosef("Requesting: %s\n", remotePath)

	res, err := client.Download(cmd.Context(), remotePath, outputDir)
	if err != nil {
		return err
	}
	out.success("File saved to: %s (%s)", res.LocalPath, humanBytes(res.Bytes))
	return nil
}

func runUpload(cmd *cobra.Command, opts *options, localPath, target string) error {
	out := newUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.quiet, opts.verbose)
	client, cleanup, err := opts.newClient(cmd, out, pap.ModeUpload)
	if err != nil {
		return err
	}
	defer cleanup()

	out.verbosef("Connecting to %s as %q...\n", client.Address(), opts.user)
	out.verbosef("Uploading: %s\n", localPath)

	res, err := client.Upload(cmd.Context(), localPath, target)
	if err != nil {
		return err
	}
	out.success("File uploaded to: %s (%s)", res.RemotePath, humanBytes(res.Bytes))
	return nil
}

func runList(cmd *cobra.Command, opts *options, dir string) error {
	out := newUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.quiet, opts.verbose)
	client, cleanup, err := opts.newClient(cmd, out, pap.ModeList)
	if err != nil {
		return err
	}
	defer cleanup()

	out.verbosef("Connecting to %s as %q...\n", client.Address(), opts.user)
	out.verbosef("Listing: %s\n", dir)

	entries, err := client.List(cmd.Context(), dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintln(cmd.OutOrStdout(), e)
	}
	out.verbosef("%d entries\n", len(entries))
	return nil
}
