package main

import (
	"fmt"
	"io"
	"os/user"
	"time"

	"github.com/drunlade/go-pap/pap"
	"github.com/spf13/cobra"
)

// options holds the flags shared by every subcommand.
type options struct {
	host      string
	port      int
	user      string
	timeout   time.Duration
	ioTimeout time.Duration
	logFile   string
	verbose   bool
	quiet     bool

	sshJump    string
	sshUser    string
	sshKey     string
	knownHosts string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var outputDir string

	root := &cobra.Command{
		Use:   "pap [MODE ARGS...]",
		Short: "PAP file transfer client",
		Long: `pap talks to a PAP server over a single TCP connection per command.

Each command opens a fresh connection, sends the unlock signal, the
username (used by the server to expand "~") and the operation, then
downloads a file, uploads a file, or lists a remote directory.

The subcommands below also have a short positional form, where MODE is
d, u or l:

  pap d REMOTE_PATH [-o DIR]
  pap u LOCAL_FILE [REMOTE_TARGET]
  pap l [REMOTE_DIR]`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, opts, outputDir, args)
		},
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.host, "host", "H", "127.0.0.1", "Server IP or hostname")
	flags.IntVarP(&opts.port, "port", "p", 9001, "Server port")
	flags.StringVarP(&opts.user, "user", "u", defaultUsername(), `Username for "~" expansion on the server (empty omits the frame)`)
	flags.DurationVarP(&opts.timeout, "timeout", "t", 10*time.Second, "Connect timeout")
	flags.DurationVar(&opts.ioTimeout, "io-timeout", 0, "Deadline for each read/write once connected (0 = none)")
	flags.StringVar(&opts.logFile, "log", "", "Protocol log file for debugging")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Only report errors")
	flags.StringVar(&opts.sshJump, "ssh-jump", "", "Reach the server through this SSH host (host[:port])")
	flags.StringVar(&opts.sshUser, "ssh-user", "", "SSH jump host username (default: --user)")
	flags.StringVar(&opts.sshKey, "ssh-key", "", "Private key file for the SSH jump host")
	flags.StringVar(&opts.knownHosts, "known-hosts", "", "known_hosts file used to verify the SSH jump host")

	root.Flags().StringVarP(&outputDir, "output", "o", ".", "Local directory to save into (download mode)")

	root.AddCommand(
		newDownloadCmd(opts),
		newUploadCmd(opts),
		newListCmd(opts),
	)
	return root
}

func defaultUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "root"
}

// newClient builds a client from the shared flags. The returned cleanup
// releases the log file and SSH jump connection, if any.
func (o *options) newClient(cmd *cobra.Command, out *ui, mode pap.Mode) (*pap.Client, func(), error) {
	cfg := pap.DefaultConfig()
	cfg.Username = o.user
	cfg.ConnectTimeout = o.timeout
	cfg.ReadTimeout = o.ioTimeout
	cfg.WriteTimeout = o.ioTimeout

	clientOpts := []pap.Option{
		pap.WithConfig(cfg),
		pap.WithCallbacks(out.callbacks()),
	}

	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}

	if o.logFile != "" {
		logger, err := pap.NewFileLogger(o.logFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create log file: %w", err)
		}
		closers = append(closers, logger)
		if !o.verbose {
			logger.SetLevel(pap.LevelInfo)
		}
		logger.Info("pap %s starting, server %s:%d", mode, o.host, o.port)
		clientOpts = append(clientOpts, pap.WithLogger(logger))
	}

	if o.sshJump != "" {
		if o.ioTimeout > 0 {
			out.warnf("warning: --io-timeout is not enforced through --ssh-jump (SSH channels have no deadlines)")
		}
		dialer, err := o.sshDialer(cmd)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, dialer)
		clientOpts = append(clientOpts, pap.WithDialer(dialer))
	}

	client, err := pap.NewClient(o.host, o.port, clientOpts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}
