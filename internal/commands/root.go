// Package commands implements the worklog command line.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/worklog/internal/client"
	"github.com/mmynk/worklog/internal/config"
	"github.com/mmynk/worklog/internal/worklist"
	"github.com/mmynk/worklog/pkg/logging"
)

// ErrReported marks a failure that was already shown to the user.
var ErrReported = errors.New("failure already reported")

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// app is the state shared by all commands of one invocation.
type app struct {
	configPath  string
	sessionPath string
	serverURL   string
	logLevel    string

	cfg     config.Config
	session *config.SessionFile
	client  *client.Client
	logger  *slog.Logger
	in      *bufio.Reader
}

// setup loads the configuration and builds the client.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}
	if a.sessionPath == "" {
		path, err := config.DefaultSessionPath()
		if err != nil {
			return err
		}
		a.sessionPath = path
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.serverURL != "" {
		cfg.ServerURL = a.serverURL
	}
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	a.logger = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(level), os.Getenv("NO_COLOR") == "")

	a.session = config.NewSessionFile(a.sessionPath)
	a.client = client.New(cfg.ServerURL, a.session, client.WithLogger(a.logger))
	a.in = bufio.NewReader(cmd.InOrStdin())
	a.logger.Debug("Configuration loaded", "config", a.configPath, "server", cfg.ServerURL)
	return nil
}

// notifier prints controller notices to stderr.
func (a *app) notifier(cmd *cobra.Command) worklist.Notifier {
	w := cmd.ErrOrStderr()
	return worklist.NotifierFunc(func(n worklist.Notice) {
		fmt.Fprintf(w, "worklog: %s\n", n)
	})
}

// prompt asks for one line of input.
func (a *app) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimRight(label, ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "worklog",
		Short: "Record work shifts and export them to Excel",
		Long: `worklog keeps a shared list of work shifts on a worklog server.
List and filter records, watch them change live, and export the filtered
list to an Excel workbook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.worklog/config.yaml)")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", "", "session file (default ~/.worklog/session.json)")
	root.PersistentFlags().StringVar(&a.serverURL, "server", "", "server URL, overrides the config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default warn)")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// The root's setup is not needed here.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "worklog %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
