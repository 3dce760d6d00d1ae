package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	buildSHA = ""

	timeNow = time.Now
)

// app carries what the commands need from the outside world
type app struct {
	stdout io.Writer
	stderr io.Writer
	ask    askFunc
	color  bool
	logger *log.Logger

	configPath string
	todoFile   string
	style      string
	verbose    bool
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: false,
		Prefix:          "todomd",
	})

	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	return logger
}

// resolve reads the configuration, asking the user when something is missing
func (a *app) resolve() (*ResolvedConfig, error) {
	a.logger = newLogger(a.stderr, a.verbose)

	path := a.configPath
	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return nil, err
		}
	}

	s := setup{
		configPath: path,
		todoFile:   a.todoFile,
		style:      a.style,
		ask:        a.ask,
		logger:     a.logger,
	}

	return s.resolve()
}

func (a *app) loadStore() (*Store, error) {
	cfg, err := a.resolve()
	if err != nil {
		return nil, err
	}

	a.logger.Debug("loading tasks", "path", cfg.TodoPath, "dialect", cfg.Dialect.Name)
	return Load(cfg.TodoPath, cfg.Dialect, WithLogger(a.logger))
}

func (a *app) printer() *printer {
	return newPrinter(a.stdout, a.color)
}

// parseIDs converts command arguments into task ids
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))

	for _, arg := range args {
		id, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid task id %q", arg)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

type listOptions struct {
	query   string
	open    bool
	done    bool
	tags    []string
	mention []string
	due     string
	sortBy  string
	groupBy string
	output  string
	watch   bool
}

// buildQuery merges the inline query with the convenience flags
func (o listOptions) buildQuery() (*Query, error) {
	var parts []string

	if o.query != "" {
		parts = append(parts, o.query)
	}
	if o.open {
		parts = append(parts, "not done")
	}
	if o.done {
		parts = append(parts, "is done")
	}
	for _, tag := range o.tags {
		parts = append(parts, "tag "+tag)
	}
	for _, mention := range o.mention {
		parts = append(parts, "mention "+mention)
	}
	if o.due != "" {
		parts = append(parts, "due "+o.due)
	}
	if o.sortBy != "" {
		parts = append(parts, "sort by "+o.sortBy)
	}
	if o.groupBy != "" {
		parts = append(parts, "group by "+o.groupBy)
	}

	return parseQuery(strings.Join(parts, "\n"))
}

func (a *app) runList(opts listOptions) error {
	query, err := opts.buildQuery()
	if err != nil {
		return err
	}

	switch opts.output {
	case "", "text", "yaml":
	default:
		return fmt.Errorf("unknown output %q (want text or yaml)", opts.output)
	}

	store, err := a.loadStore()
	if err != nil {
		return err
	}

	if opts.watch {
		return runWatch(store.Path, func() (*Store, error) {
			return Load(store.Path, store.Dialect, WithLogger(log.New(io.Discard)))
		}, query, newPrinter(a.stdout, true))
	}

	tasks := filterTasks(store.List(), query, timeNow())

	if opts.output == "yaml" {
		return writeYAML(a.stdout, sortTasks(tasks, query.SortBy))
	}

	p := a.printer()
	if query.GroupBy == "" {
		p.printTasks(store.Path, sortTasks(tasks, query.SortBy))
		return nil
	}

	fmt.Fprintln(a.stdout, p.header(store.Path, len(tasks)))
	for _, group := range groupTasks(tasks, query.GroupBy, query.SortBy) {
		fmt.Fprintln(a.stdout, p.style("## "+group.Name, sectionStyle.Render))
		for _, task := range group.Tasks {
			p.printTask(task, "")
		}
	}

	return nil
}

func (a *app) runAdd(words []string) error {
	store, err := a.loadStore()
	if err != nil {
		return err
	}

	task, err := store.Add(words)
	if err != nil {
		return err
	}

	a.printer().printTask(task, string(ActionAdded))
	return nil
}

func (a *app) runDone(args []string, uncheck bool) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	store, err := a.loadStore()
	if err != nil {
		return err
	}

	var changes []Change
	if uncheck {
		changes, err = store.Uncheck(ids)
	} else {
		changes, err = store.Complete(ids)
	}

	a.printer().printChanges(changes)
	return err
}

func (a *app) runRemove(args []string, yes bool) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	store, err := a.loadStore()
	if err != nil {
		return err
	}

	p := a.printer()

	decide := confirmDecider(a.ask, func(task *Task) {
		p.printTask(task, "to remove")
	})
	if yes {
		decide = deleteAll
	}

	removed, err := store.Remove(ids, decide)
	if err != nil {
		return err
	}

	for _, task := range removed {
		p.printTask(task, string(ActionRemoved))
	}

	return nil
}

func (a *app) runConfig() error {
	cfg, err := a.resolve()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "config:  %s\n", cfg.ConfigPath)
	fmt.Fprintf(a.stdout, "file:    %s\n", cfg.TodoPath)
	fmt.Fprintf(a.stdout, "style:   %s\n", cfg.Dialect.Name)
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	var listOpts listOptions
	var removeYes bool

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(listOpts)
		},
	}

	flags := listCmd.Flags()
	flags.StringVarP(&listOpts.query, "query", "q", "", `Inline query, e.g. "not done tag #home due before tomorrow sort by due"`)
	flags.BoolVar(&listOpts.open, "open", false, "Show only tasks that are not done")
	flags.BoolVar(&listOpts.done, "done", false, "Show only tasks that are done")
	flags.StringSliceVar(&listOpts.tags, "tag", nil, "Show only tasks with this #tag (repeatable)")
	flags.StringSliceVar(&listOpts.mention, "mention", nil, "Show only tasks mentioning @name (repeatable)")
	flags.StringVar(&listOpts.due, "due", "", `Due filter: today, tomorrow, "before 2024-01-01", "after today", "on 2024-01-01"`)
	flags.StringVar(&listOpts.sortBy, "sort", "", "Sort by due, title or status")
	flags.StringVar(&listOpts.groupBy, "group", "", "Group by tag, mention or status")
	flags.StringVarP(&listOpts.output, "output", "o", "text", "Output format: text or yaml")
	flags.BoolVarP(&listOpts.watch, "watch", "w", false, "Keep the list open and reload when the file changes")
	listCmd.MarkFlagsMutuallyExclusive("open", "done")
	listCmd.MarkFlagsMutuallyExclusive("watch", "output")

	addCmd := &cobra.Command{
		Use:     "add <text...>",
		Aliases: []string{"a"},
		Short:   "Add a task",
		Long:    `Add a task. #tags, @mentions and the first YYYY-MM-DD date in the text are picked up as task fields.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAdd(args)
		},
	}

	doneCmd := &cobra.Command{
		Use:     "done <id...>",
		Aliases: []string{"d"},
		Short:   "Check off tasks (tasks already done are unchecked)",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDone(args, false)
		},
	}

	uncheckCmd := &cobra.Command{
		Use:     "uncheck <id...>",
		Aliases: []string{"u"},
		Short:   "Mark tasks as not done",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDone(args, true)
		},
	}

	removeCmd := &cobra.Command{
		Use:     "remove <id...>",
		Aliases: []string{"rm"},
		Short:   "Remove one or more tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemove(args, removeYes)
		},
	}
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Delete without asking")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfig()
		},
	}

	rootCmd := &cobra.Command{
		Use:   "todomd",
		Short: "Keep a todo list inside a markdown file",
		Long: `todomd manages checkbox tasks stored in a plain markdown or Logseq file.

Task ids are positions in the file and change whenever tasks are added or
removed. Run "todomd list" before referring to a task by id.`,
		Version:       fmt.Sprintf("%s (%s)", version, buildSHAOrUnknown()),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(listOptions{})
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&a.configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/todomd/config.toml)")
	persistent.StringVarP(&a.todoFile, "file", "f", "", "Todo file to use instead of the configured one")
	persistent.StringVar(&a.style, "style", "", "Checkbox style: md or logseq")
	persistent.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	rootCmd.AddCommand(listCmd, addCmd, doneCmd, uncheckCmd, removeCmd, configCmd)

	return rootCmd
}

func buildSHAOrUnknown() string {
	if sha := strings.TrimSpace(buildSHA); sha != "" {
		return sha
	}
	return "unknown"
}

func main() {
	color := isatty.IsTerminal(os.Stdout.Fd())

	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		ask:    defaultAsk(),
		color:  color,
		logger: newLogger(os.Stderr, false),
	}

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
