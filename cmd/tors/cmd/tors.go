package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tors/backend"
	"tors/backend/file"
	"tors/backend/registry"
	"tors/backend/remote"
	"tors/backend/sqlite"
	"tors/internal/cli/prompt"
	"tors/internal/config"
	"tors/internal/credentials"
	"tors/internal/theme"
	"tors/internal/tui"
	"tors/internal/utils"
	"tors/internal/views"
)

// Version is set at build time
var Version = "dev"

// Exit codes
const (
	ExitOK           = 0
	ExitFatal        = 1
	ExitInvalidInput = 2
	ExitNotFound     = 3
	ExitRemote       = 4
)

// InvalidCommandMessage is printed for unknown subcommands
const InvalidCommandMessage = "Invalid command. Use --help for usage."

// Config holds process-level settings that tests inject
type Config struct {
	NoPrompt   bool
	Verbose    bool
	ConfigPath string              // Path to config file (for testing)
	DataPath   string              // Overrides local.path (for testing)
	Stdin      io.Reader           // Answers prompts; os.Stdin when nil
	Keyring    credentials.Keyring // Replaces the system keyring (for testing)
}

// app carries the state shared by all subcommands of one invocation
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *Config

	conf     *config.Config
	json     bool
	renderer *views.Renderer
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	if cfg == nil {
		cfg = &Config{}
	}
	a := &app{stdout: stdout, stderr: stderr, cfg: cfg}
	rootCmd := a.newRootCmd()

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		return a.report(err)
	}
	return ExitOK
}

// ExitCode maps an error onto the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case backend.IsFatal(err):
		return ExitFatal
	case errors.Is(err, backend.ErrInvalidInput):
		return ExitInvalidInput
	case errors.Is(err, backend.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, backend.ErrRemoteFailure), errors.Is(err, backend.ErrTransport):
		return ExitRemote
	}
	return ExitFatal
}

// report prints err and returns its exit code. Recoverable errors get the
// short themed messages, everything else goes to stderr with a suggestion.
func (a *app) report(err error) int {
	code := ExitCode(err)

	if strings.HasPrefix(err.Error(), "unknown command") {
		a.rendererOrDefault().Error(InvalidCommandMessage)
		return ExitFatal
	}

	if a.json {
		outputErrorJSON(err, code, a.stdout)
		return code
	}

	if msg := shortMessage(err); msg != "" {
		a.rendererOrDefault().Error(msg)
		return code
	}

	_, _ = fmt.Fprintln(a.stderr, "Error:", utils.Suggest(err))
	return code
}

// shortMessage returns the one-line message for not-found and invalid
// field or theme errors, or "" for anything else.
func shortMessage(err error) string {
	var nf *backend.NotFoundError
	if errors.As(err, &nf) {
		if nf.Kind == "category" {
			return "Category not found."
		}
		return "Task not found."
	}
	var invalid *backend.InvalidInputError
	if errors.As(err, &invalid) {
		switch invalid.What {
		case "field":
			return "Invalid field."
		case "theme":
			return "Invalid theme."
		}
	}
	return ""
}

func (a *app) rendererOrDefault() *views.Renderer {
	if a.renderer != nil {
		return a.renderer
	}
	return views.NewRenderer(views.NewStyles(views.ModeLocal, theme.Default), a.stdout)
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tors",
		Short:   "A multi platform task manager",
		Long:    "tors tracks tasks and categories in a local file or on a remote tors service.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("mode", "", "Backend mode: local or remote")
	cmd.PersistentFlags().String("config", "", "Path to the config file")

	cmd.AddCommand(
		a.newCreateTaskCmd(),
		a.newCreateCategoryCmd(),
		a.newEditTaskCmd(),
		a.newEditCategoryCmd(),
		a.newDeleteTaskCmd(),
		a.newDeleteCategoryCmd(),
		a.newAssignCategoryCmd(),
		a.newListTasksCmd(),
		a.newListCategoriesCmd(),
		a.newChangeThemeCmd(),
		a.newBrowseCmd(),
		a.newServeCmd(),
		a.newAPIKeyCmd(),
		a.newVersionCmd(),
	)
	return cmd
}

// setup loads the config file and applies flag overrides
func (a *app) setup(cmd *cobra.Command) error {
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	mode, _ := cmd.Flags().GetString("mode")
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = a.cfg.ConfigPath
	}

	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}

	format := ""
	if jsonOutput {
		format = "json"
	}
	conf.ApplyFlags(noPrompt || a.cfg.NoPrompt, format, strings.ToLower(mode))
	if a.cfg.DataPath != "" {
		conf.Local.Path = a.cfg.DataPath
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	utils.SetOutput(a.stderr)
	utils.SetVerboseMode(verbose || a.cfg.Verbose || conf.Logging.Verbose)

	a.conf = conf
	a.json = conf.OutputFormat == "json"
	return nil
}

func (a *app) stdin() io.Reader {
	if a.cfg.Stdin != nil {
		return a.cfg.Stdin
	}
	return os.Stdin
}

func (a *app) prompter() *prompt.Prompter {
	return prompt.New(a.stdin(), a.stdout, a.conf.NoPrompt)
}

// credentials returns the API key manager. The keyring is consulted when
// lookup is set.
func (a *app) credentials(lookup bool) *credentials.Manager {
	opts := []credentials.ManagerOption{credentials.WithKeyringLookup(lookup)}
	if a.cfg.Keyring != nil {
		opts = append(opts, credentials.WithKeyring(a.cfg.Keyring))
	}
	return credentials.NewManager(opts...)
}

// openBackend opens the backend selected by the config
func (a *app) openBackend(ctx context.Context) (backend.TaskManager, error) {
	if a.conf.IsRemote() {
		info := a.credentials(a.conf.Remote.UseKeyring).Resolve(ctx, a.conf.Remote.APIKey)
		utils.Debugf("using API key from %s", info.Source)
		return remote.New(remote.Config{
			BaseURL:   a.conf.Remote.BaseURL,
			APIKey:    info.APIKey,
			Timeout:   a.conf.GetTimeout(),
			UserAgent: "tors/" + Version,
		})
	}

	policy, err := registry.PolicyByName(a.conf.Local.IDPolicy)
	if err != nil {
		return nil, err
	}
	opt := registry.WithIDPolicy(policy)
	if a.conf.Local.Format == config.FormatSQLite {
		return sqlite.Open(a.conf.Local.Path, opt)
	}
	return file.Open(a.conf.Local.Path, opt)
}

// withBackend opens the backend, prepares the renderer and runs fn. Local
// state is saved when the backend closes, also after a recoverable error.
// Close errors override recoverable ones.
func (a *app) withBackend(fn func(ctx context.Context, be backend.TaskManager) error) (err error) {
	ctx := context.Background()
	be, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if backend.IsFatal(err) {
			return
		}
		if closeErr := be.Close(); closeErr != nil {
			err = closeErr
		}
	}()

	if a.conf.IsRemote() {
		a.useThemeName(theme.Default)
	} else {
		a.useTheme(ctx, be)
	}
	return fn(ctx, be)
}

// useTheme builds the renderer for the stored theme. A theme that cannot be
// fetched falls back to the default colors.
func (a *app) useTheme(ctx context.Context, be backend.TaskManager) {
	name := theme.Default
	if !a.json {
		if stored, err := be.Theme(ctx); err == nil {
			name = stored
		} else {
			utils.Debugf("theme lookup failed: %v", err)
		}
	}
	a.useThemeName(name)
}

// useListTheme colors listings with the stored theme. Remote status
// messages keep the default colors so each command sends one request;
// listings fetch the theme first.
func (a *app) useListTheme(ctx context.Context, be backend.TaskManager) {
	if a.conf.IsRemote() && !a.json {
		a.useTheme(ctx, be)
	}
}

// done prints msg, or a JSON action result in JSON mode
func (a *app) done(action, msg string, data interface{}) error {
	if a.json {
		return outputActionJSON(action, data, a.stdout)
	}
	a.renderer.Success(msg)
	return nil
}

// =============================================================================
// Task Commands
// =============================================================================

func (a *app) newCreateTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "createtask [name] [description] [eta]",
		Short: "Creates a new task",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.prompter().Fill(args,
				prompt.Question{Name: "name", Label: "Enter task name:"},
				prompt.Question{Name: "description", Label: "Enter task description:"},
				prompt.Question{Name: "eta", Label: "Enter task ETA:"},
			)
			if err != nil {
				return err
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				task, err := be.CreateTask(ctx, values[0], values[1], values[2])
				if err != nil {
					return err
				}
				return a.done("created", "Task created successfully!", task)
			})
		},
	}
}

func (a *app) newEditTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edittask [id] [field] [value]",
		Short: "Edits an existing task",
		Long:  "Edits one field of a task. Fields: name, description, eta.",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.prompter().Fill(args,
				prompt.Question{Name: "id", Label: "Enter task ID to edit:"},
				prompt.Question{Name: "field", Label: "Enter field to edit (name, description, eta):"},
				prompt.Question{Name: "value", Label: "Enter new value:"},
			)
			if err != nil {
				return err
			}
			id, err := utils.ParseID(values[0])
			if err != nil {
				return err
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				if err := be.EditTask(ctx, id, backend.Field(values[1]), values[2]); err != nil {
					return err
				}
				return a.done("updated", "Task updated successfully!", map[string]int{"id": id})
			})
		},
	}
}

func (a *app) newDeleteTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deltask [id]",
		Short: "Deletes a task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.promptID(args, "Enter task ID to delete:")
			if err != nil {
				return err
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				if err := be.DeleteTask(ctx, id); err != nil {
					return err
				}
				return a.done("deleted", "Task deleted successfully!", map[string]int{"id": id})
			})
		},
	}
}

func (a *app) newAssignCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assigncategory [task-id] [category-id]",
		Short: "Assigns a category to a task",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.prompter().Fill(args,
				prompt.Question{Name: "task id", Label: "Enter task ID:"},
				prompt.Question{Name: "category id", Label: "Enter category ID:"},
			)
			if err != nil {
				return err
			}
			taskID, err := utils.ParseID(values[0])
			if err != nil {
				return err
			}
			categoryID, err := utils.ParseID(values[1])
			if err != nil {
				return err
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				label, err := be.AssignCategory(ctx, taskID, categoryID)
				if err != nil {
					return err
				}
				if label == "" {
					label = strconv.Itoa(categoryID)
				}
				msg := fmt.Sprintf("Task %d assigned to category %s.", taskID, label)
				return a.done("assigned", msg, map[string]interface{}{"taskId": taskID, "categoryId": categoryID, "category": label})
			})
		},
	}
}

func (a *app) newListTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listtasks",
		Short: "Lists all tasks with their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				groups, err := be.ListTasksGroupedByCategory(ctx)
				if err != nil {
					return err
				}
				if a.json {
					return views.RenderGroupsJSON(a.stdout, groups)
				}
				a.useListTheme(ctx, be)
				a.renderer.RenderGroups(groups)
				return nil
			})
		},
	}
}

// =============================================================================
// Category Commands
// =============================================================================

func (a *app) newCreateCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "createcategory [name]",
		Short: "Creates a new category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.prompter().Fill(args, prompt.Question{Name: "name", Label: "Enter category name:"})
			if err != nil {
				return err
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				category, err := be.CreateCategory(ctx, values[0])
				if err != nil {
					return err
				}
				return a.done("created", "Category created successfully!", category)
			})
		},
	}
}

func (a *app) newEditCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "editcategory [id] [name]",
		Short: "Edits an existing category",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.prompter().Fill(args,
				prompt.Question{Name: "id", Label: "Enter category ID to edit:"},
				prompt.Question{Name: "name", Label: "Enter new name:"},
			)
			if err != nil {
				return err
			}
			id, err := utils.ParseID(values[0])
			if err != nil {
				return err
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				if err := be.EditCategory(ctx, id, values[1]); err != nil {
					return err
				}
				return a.done("updated", "Category updated successfully!", backend.Category{ID: id, Name: values[1]})
			})
		},
	}
}

func (a *app) newDeleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delcategory [id]",
		Short: "Deletes a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.promptID(args, "Enter category ID to delete:")
			if err != nil {
				return err
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				if err := be.DeleteCategory(ctx, id); err != nil {
					return err
				}
				return a.done("deleted", "Category deleted successfully!", map[string]int{"id": id})
			})
		},
	}
}

func (a *app) newListCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listcategories",
		Short: "Lists all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				categories, err := be.ListCategories(ctx)
				if err != nil {
					return err
				}
				if a.json {
					return views.RenderCategoriesJSON(a.stdout, categories)
				}
				a.useListTheme(ctx, be)
				a.renderer.RenderCategories(categories)
				return nil
			})
		},
	}
}

// =============================================================================
// Theme, Browse and Version
// =============================================================================

func (a *app) newChangeThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changetheme [theme]",
		Short: "Changes the theme",
		Long:  "Changes the theme. Themes: Desert, Oasis, Forest, Snow.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.prompter().Fill(args, prompt.Question{
				Name:  "theme",
				Label: "Enter new theme (Desert, Oasis, Forest, Snow):",
			})
			if err != nil {
				return err
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				if err := be.SetTheme(ctx, values[0]); err != nil {
					return err
				}
				if a.json {
					return outputActionJSON("updated", map[string]string{"theme": values[0]}, a.stdout)
				}
				a.useThemeName(values[0])
				a.renderer.Accent("Theme changed successfully!")
				return nil
			})
		},
	}
}

// useThemeName rebuilds the renderer for a theme that was just stored
func (a *app) useThemeName(name string) {
	mode := views.ModeLocal
	if a.conf.IsRemote() {
		mode = views.ModeRemote
	}
	a.renderer = views.NewRenderer(views.NewStyles(mode, name), a.stdout)
}

func (a *app) newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse tasks interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !prompt.Interactive(a.stdin()) || a.conf.NoPrompt {
				return errors.New("browse requires an interactive terminal")
			}
			return a.withBackend(func(ctx context.Context, be backend.TaskManager) error {
				p := tea.NewProgram(tui.New(be), tea.WithAltScreen(), tea.WithInput(a.stdin()), tea.WithOutput(a.stdout))
				_, err := p.Run()
				return err
			})
		},
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(a.stdout, "tors version %s\n", Version)
			return nil
		},
	}
}

// promptID returns the id from args[0] or asks for it
func (a *app) promptID(args []string, label string) (int, error) {
	values, err := a.prompter().Fill(args, prompt.Question{Name: "id", Label: label})
	if err != nil {
		return 0, err
	}
	return utils.ParseID(values[0])
}

// =============================================================================
// JSON Output
// =============================================================================

type actionResponse struct {
	Action string      `json:"action"`
	Data   interface{} `json:"data,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func outputActionJSON(action string, data interface{}, stdout io.Writer) error {
	jsonBytes, err := json.Marshal(actionResponse{Action: action, Data: data})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

func outputErrorJSON(err error, code int, stdout io.Writer) {
	jsonBytes, _ := json.Marshal(errorResponse{Error: err.Error(), Code: code})
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}
