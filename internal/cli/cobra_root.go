package cli

import (
	"context"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"task-tracker/internal/api"
	"task-tracker/internal/config"
	"task-tracker/internal/logging"
)

// APIFactory opens the store described by cfg and returns the API on top of
// it together with a function releasing the store.
type APIFactory func(ctx context.Context, cfg *config.Config, logger log.FieldLogger) (api.API, func() error, error)

// skipStore marks commands that run without opening the database.
const skipStore = "tk/skip-store"

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd     *cobra.Command
	factory APIFactory

	config     *config.Config
	logger     log.FieldLogger
	app        *App
	closeStore func() error

	configPath string
	dbPath     string
	output     string
	noColor    bool
	verbose    bool
	logLevel   string
	logFormat  string
	timeout    time.Duration
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(factory APIFactory) *RootCommand {
	root := &RootCommand{factory: factory}

	root.cmd = &cobra.Command{
		Use:   "tk",
		Short: "A command-line task tracker with undo and redo",
		Long: `Task Tracker (tk) keeps a list of tasks with categories, deadlines and a
status, and records every change so it can be undone and redone.

FEATURES:
  • Add, edit, read, list and delete tasks
  • Tag tasks with categories, rename or drop a category everywhere at once
  • Undo and redo every change, inspect the action history
  • Text or JSON output
  • Configurable via a YAML file, environment variables and flags

EXAMPLES:
  tk task add "Write report" -c work --deadline 2026-11-01
  tk task list --status undone --sort deadline,title
  tk task edit 3 --status done
  tk category add urgent 3 4 5             # Tag three tasks in one action
  tk category batch-rename work job        # Rename a category on every task
  tk undo                                  # Reverse the last change
  tk redo                                  # Reapply it
  tk history --limit 5                     # Show the newest actions

CONFIGURATION:
  Configuration follows this priority order: flags > environment variables > config file > defaults
  The config file is ~/.tk/config.yaml unless TK_CONFIG or --config names another.

  Database Configuration:
    TK_DB_DIR                              Database directory (default: ~/.tk)
    TK_DB_FILENAME                         Database filename (default: tk.db)

  Display Configuration:
    TK_DISPLAY_TIME_FORMAT                 Time format (default: 2006-01-02 15:04)
    TK_OUTPUT                              Output format, text or json (default: text)
    TK_DISPLAY_COLOR                       Styled output (default: true, NO_COLOR disables)

  Validation Configuration:
    TK_VALIDATION_TITLE_MAX                Max title length (default: 1000)
    TK_VALIDATION_INFO_MAX                 Max info length (default: 10000)
    TK_VALIDATION_CATEGORY_MAX             Max category length (default: 200)

  History Configuration:
    TK_HISTORY_LIMIT                       Actions shown by tk history (default: 20)

  Logging Configuration:
    TK_LOG_LEVEL                           Log level (default: warn)
    TK_LOG_FORMAT                          Log format, text or json (default: text)
    TK_DEBUG                               Force debug logging

  Application Configuration:
    TK_APP_TIMEOUT                         Command timeout (default: 60s)
    TK_APP_VERBOSE                         Verbose output (default: false)

GETTING HELP:
  tk [command] --help                      # Get help for any specific command
  tk completion bash                       # Generate bash completion script`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.setup(cmd)
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Command returns the underlying cobra command
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// SetOutput redirects command output and errors
func (r *RootCommand) SetOutput(out, errOut io.Writer) {
	r.cmd.SetOut(out)
	r.cmd.SetErr(errOut)
}

// SetArgs sets the arguments parsed instead of os.Args
func (r *RootCommand) SetArgs(args []string) {
	r.cmd.SetArgs(args)
}

// Execute runs the root command and releases the store afterwards
func (r *RootCommand) Execute() error {
	return r.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx
func (r *RootCommand) ExecuteContext(ctx context.Context) (err error) {
	defer func() {
		if r.closeStore == nil {
			return
		}
		if closeErr := r.closeStore(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.closeStore = nil
	}()
	return r.cmd.ExecuteContext(ctx)
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.StringVar(&r.configPath, "config", "", "Config file (overrides TK_CONFIG)")
	flags.StringVar(&r.dbPath, "db", "", "Database file (overrides TK_DB_DIR and TK_DB_FILENAME)")
	flags.StringVarP(&r.output, "output", "o", "", "Output format, text or json (overrides TK_OUTPUT)")
	flags.BoolVar(&r.noColor, "no-color", false, "Disable styled output")
	flags.BoolVarP(&r.verbose, "verbose", "v", false, "Enable verbose output (overrides TK_APP_VERBOSE)")
	flags.StringVar(&r.logLevel, "log-level", "", "Log level (overrides TK_LOG_LEVEL)")
	flags.StringVar(&r.logFormat, "log-format", "", "Log format, text or json (overrides TK_LOG_FORMAT)")
	flags.DurationVar(&r.timeout, "timeout", 0, "Command timeout (overrides TK_APP_TIMEOUT)")
}

// overrides collects the flags that were set explicitly
func (r *RootCommand) overrides(cmd *cobra.Command) *config.ConfigOverrides {
	flags := cmd.Flags()
	o := &config.ConfigOverrides{}
	if flags.Changed("db") {
		o.DBPath = &r.dbPath
	}
	if flags.Changed("output") {
		o.Output = &r.output
	}
	if flags.Changed("no-color") && r.noColor {
		color := false
		o.Color = &color
	}
	if flags.Changed("verbose") {
		o.Verbose = &r.verbose
	}
	if flags.Changed("log-level") {
		o.LogLevel = &r.logLevel
	}
	if flags.Changed("log-format") {
		o.LogFormat = &r.logFormat
	}
	if flags.Changed("timeout") {
		o.Timeout = &r.timeout
	}
	return o
}

// setup loads the configuration, builds the logger and, unless the command
// opts out, opens the store.
func (r *RootCommand) setup(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if r.configPath != "" {
		loader = loader.WithFile(r.configPath)
	}
	cfg, err := loader.LoadWithOverrides(r.overrides(cmd))
	if err != nil {
		return err
	}
	r.config = cfg

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	r.logger = logger.WithField("command", cmd.CommandPath())

	var apiInstance api.API
	if needsStore(cmd) {
		apiInstance, r.closeStore, err = r.factory(cmd.Context(), cfg, r.logger)
		if err != nil {
			return err
		}
	}

	r.app = NewAppWithOutput(apiInstance, cfg, r.logger, cmd.OutOrStdout())
	r.logger.WithField("db", cfg.GetDatabasePath()).Debug("configuration loaded")
	return nil
}

// needsStore reports whether cmd works on the database. Help, completion
// and commands annotated with skipStore do not.
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
		if c.Annotations[skipStore] != "" {
			return false
		}
	}
	return true
}

// run wraps a handler with the configured command timeout
func (r *RootCommand) run(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), r.config.Application.Timeout)
		defer cancel()
		return fn(ctx, args)
	}
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	r.cmd.AddCommand(
		r.taskCommand(),
		r.categoryCommand(),
		r.undoCommand(),
		r.redoCommand(),
		r.historyCommand(),
		r.configCommand(),
	)
}

func (r *RootCommand) taskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Manage tasks",
	}

	var addOpts TaskAddOptions
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Long: `Add a task. Every argument is joined into the title.

Examples:
  tk task add Buy milk
  tk task add "Write report" -c work -c q4 --deadline 2026-11-01 --info "draft first"`,
		RunE: r.run(func(ctx context.Context, args []string) error {
			return NewTaskCommand(r.app).Add(ctx, args, addOpts)
		}),
	}
	addCmd.Flags().StringVarP(&addOpts.Info, "info", "i", "", "Free text notes")
	addCmd.Flags().StringVarP(&addOpts.Deadline, "deadline", "d", "", "Deadline as YYYY-MM-DD")
	addCmd.Flags().StringVarP(&addOpts.Status, "status", "s", "", "Status: undone, done or archived (default undone)")
	addCmd.Flags().StringVar(&addOpts.CreatedAt, "created-at", "", "Creation time, RFC 3339 or the display format (default now)")
	addCmd.Flags().StringSliceVarP(&addOpts.Categories, "category", "c", nil, "Category, repeatable or comma separated")

	var (
		editTitle, editInfo, editDeadline, editStatus, editCreatedAt string
		editOpts                                                      TaskEditOptions
	)
	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Long: `Edit the fields of a task. Only the flags given are changed.

Examples:
  tk task edit 3 --status done
  tk task edit 3 --title "Write the report" --clear-deadline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			opts := editOpts
			if flags.Changed("title") {
				opts.Title = &editTitle
			}
			if flags.Changed("info") {
				opts.Info = &editInfo
			}
			if flags.Changed("deadline") {
				opts.Deadline = &editDeadline
			}
			if flags.Changed("status") {
				opts.Status = &editStatus
			}
			if flags.Changed("created-at") {
				opts.CreatedAt = &editCreatedAt
			}
			return r.run(func(ctx context.Context, args []string) error {
				return NewTaskCommand(r.app).Edit(ctx, args, opts)
			})(cmd, args)
		},
	}
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&editInfo, "info", "i", "", "New notes")
	editCmd.Flags().BoolVar(&editOpts.ClearInfo, "clear-info", false, "Remove the notes")
	editCmd.Flags().StringVarP(&editDeadline, "deadline", "d", "", "New deadline as YYYY-MM-DD")
	editCmd.Flags().BoolVar(&editOpts.ClearDeadline, "clear-deadline", false, "Remove the deadline")
	editCmd.Flags().StringVarP(&editStatus, "status", "s", "", "New status: undone, done or archived")
	editCmd.Flags().StringVar(&editCreatedAt, "created-at", "", "New creation time")

	deleteCmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete tasks",
		Long:    "Delete one or more tasks. Each deletion is its own action and can be undone.",
		RunE: r.run(func(ctx context.Context, args []string) error {
			return NewTaskCommand(r.app).Delete(ctx, args)
		}),
	}

	readCmd := &cobra.Command{
		Use:     "read <id>",
		Aliases: []string{"show"},
		Short:   "Show a task with its categories",
		RunE: r.run(func(ctx context.Context, args []string) error {
			return NewTaskCommand(r.app).Read(ctx, args)
		}),
	}

	var listOpts TaskListOptions
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks matching every filter given.

Sort keys are field[:asc|desc] with field one of created-at, updated-at,
deadline or title. Keys may be repeated or comma separated; the first key
decides and later keys break ties. Tasks without a deadline sort last.

Examples:
  tk task list --status undone
  tk task list --category work --text report
  tk task list --sort deadline,created-at:desc --limit 10`,
		Args: cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, args []string) error {
			return NewTaskCommand(r.app).List(ctx, listOpts)
		}),
	}
	listCmd.Flags().StringVarP(&listOpts.Status, "status", "s", "", "Only tasks with this status")
	listCmd.Flags().StringVarP(&listOpts.Category, "category", "c", "", "Only tasks carrying this category")
	listCmd.Flags().StringVar(&listOpts.Text, "text", "", "Only tasks whose title or info contains this text")
	listCmd.Flags().StringSliceVar(&listOpts.Sort, "sort", nil, "Sort keys, field[:asc|desc]")
	listCmd.Flags().IntVarP(&listOpts.Limit, "limit", "n", 0, "Maximum number of tasks (0 for all)")

	taskCmd.AddCommand(addCmd, editCmd, deleteCmd, readCmd, listCmd)
	return taskCmd
}

func (r *RootCommand) categoryCommand() *cobra.Command {
	categoryCmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage task categories",
	}

	categoryCmd.AddCommand(
		&cobra.Command{
			Use:   "add <category> <id>...",
			Short: "Add a category to one or more tasks",
			Long:  "Add a category to one or more tasks. Several tasks are changed as a single action.",
			RunE: r.run(func(ctx context.Context, args []string) error {
				return NewCategoryCommand(r.app).Add(ctx, args)
			}),
		},
		&cobra.Command{
			Use:   "rename <id> <from> <to>",
			Short: "Rename a category on one task",
			RunE: r.run(func(ctx context.Context, args []string) error {
				return NewCategoryCommand(r.app).Rename(ctx, args)
			}),
		},
		&cobra.Command{
			Use:     "delete <id> <category>",
			Aliases: []string{"rm"},
			Short:   "Remove a category from one task",
			RunE: r.run(func(ctx context.Context, args []string) error {
				return NewCategoryCommand(r.app).Delete(ctx, args)
			}),
		},
		&cobra.Command{
			Use:   "batch-rename <from> <to>",
			Short: "Rename a category on every task carrying it",
			RunE: r.run(func(ctx context.Context, args []string) error {
				return NewCategoryCommand(r.app).BatchRename(ctx, args)
			}),
		},
		&cobra.Command{
			Use:   "batch-delete <category>",
			Short: "Remove a category from every task carrying it",
			RunE: r.run(func(ctx context.Context, args []string) error {
				return NewCategoryCommand(r.app).BatchDelete(ctx, args)
			}),
		},
		&cobra.Command{
			Use:     "list [id]",
			Aliases: []string{"ls"},
			Short:   "List categories with their task counts, or the categories of one task",
			RunE: r.run(func(ctx context.Context, args []string) error {
				return NewCategoryCommand(r.app).List(ctx, args)
			}),
		},
	)
	return categoryCmd
}

func (r *RootCommand) undoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent action",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, args []string) error {
			return NewHistoryCommand(r.app).Undo(ctx)
		}),
	}
}

func (r *RootCommand) redoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Redo the most recently undone action",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, args []string) error {
			return NewHistoryCommand(r.app).Redo(ctx)
		}),
	}
}

func (r *RootCommand) historyCommand() *cobra.Command {
	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the action history",
		Long: `Show the newest actions, most recent first. Undone actions are marked and
will be reapplied by redo.

Examples:
  tk history               # The configured number of actions (TK_HISTORY_LIMIT)
  tk history --limit 50
  tk history clear         # Forget every action`,
		Args: cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, args []string) error {
			return NewHistoryCommand(r.app).List(ctx, limit)
		}),
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of actions to show (0 for the configured default)")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Discard every recorded action",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, args []string) error {
			return NewHistoryCommand(r.app).Clear(ctx)
		}),
	})
	return historyCmd
}

func (r *RootCommand) configCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect the configuration",
		Annotations: map[string]string{skipStore: "true"},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the merged configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return NewConfigCommand(r.app).Show()
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file and database locations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return NewConfigCommand(r.app).Path(strings.TrimSpace(r.configPath))
			},
		},
	)
	return configCmd
}
