package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"flowdeck/internal/config"
	"flowdeck/internal/db"
	"flowdeck/internal/domain"
	"flowdeck/internal/engine"
	"flowdeck/internal/migrate"
	"flowdeck/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "flowdeck",
	Short: "Flowdeck CLI",
	Long: `Flowdeck is the headless core of a project-management workspace:
an assistant that turns free-text commands into task queries and mutations,
on top of an optimistic local task store.

- Tasks: work items with status (todo/in_progress/review/done/blocked),
  risk level, assignee, due date and a board position.
- Assistant: type "summarize the project", "show high risk tasks",
  "who is busiest", "create task <name>", "mark <task> as done" or
  "show the flow diagram". Try 'flowdeck chat'.
- Mutations apply to memory first and are persisted in the background;
  the visible state never waits on the database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FLOWDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(workloadCmd())
	rootCmd.AddCommand(docCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func newLogger() *zap.Logger {
	if viper.GetBool("verbose") {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}

func loadConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default("flowdeck")
	}
	return cfg, nil
}

func withEngine(ctx context.Context, fn func(ctx context.Context, e *engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := loadConfig(workspace)
	if err != nil {
		return err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()
	e := engine.New(conn, cfg, log)
	defer e.Close()
	if err := e.Hydrate(ctx); err != nil {
		return err
	}
	return fn(ctx, e)
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	var name string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default flowdeck.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(name)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&name, "name", "flowdeck", "workspace name")
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Manage tasks"}
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskShowCmd())
	cmd.AddCommand(taskCreateCmd())
	cmd.AddCommand(taskUpdateCmd())
	cmd.AddCommand(taskBulkCmd())
	return cmd
}

func taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				tasks := e.CurrentTasks()
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				renderTaskTable(tasks)
				return nil
			})
		},
	}
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				t, ok := e.Store.Get(args[0])
				if !ok {
					return fmt.Errorf("task %s not found", args[0])
				}
				return printJSON(t)
			})
		},
	}
}

func taskCreateCmd() *cobra.Command {
	var name, assignee, status, risk, due, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
					Name:        name,
					Assignee:    assignee,
					Status:      status,
					Risk:        risk,
					Due:         due,
					Description: description,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "task name")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee")
	cmd.Flags().StringVar(&status, "status", "", "todo|in_progress|review|done|blocked")
	cmd.Flags().StringVar(&risk, "risk", "", "low|medium|high|critical")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD")
	cmd.Flags().StringVar(&description, "description", "", "description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var status, assignee, name, risk, due string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				var patch domain.TaskPatch
				if cmd.Flags().Changed("status") {
					st, err := domain.ParseStatus(status)
					if err != nil {
						return err
					}
					patch.Status = &st
				}
				if cmd.Flags().Changed("risk") {
					rk, err := domain.ParseRisk(risk)
					if err != nil {
						return err
					}
					patch.Risk = &rk
				}
				if cmd.Flags().Changed("assignee") {
					patch.Assignee = &assignee
				}
				if cmd.Flags().Changed("name") {
					patch.Name = &name
				}
				if cmd.Flags().Changed("due") {
					patch.Due = &due
				}
				t, err := e.UpdateTaskFields(ctx, args[0], patch, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&risk, "risk", "", "new risk")
	cmd.Flags().StringVar(&assignee, "assignee", "", "new assignee")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&due, "due", "", "new due date")
	return cmd
}

func taskBulkCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "bulk <id>...",
		Short: "Move several tasks to one status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				n, err := e.BulkUpdateStatus(ctx, args, status, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				fmt.Printf("updated %d task(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "target status")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <command>",
		Short: "Run one assistant command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				msg, err := e.SubmitCommandWait(ctx, strings.Join(args, " "), viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(msg)
				}
				fmt.Println(msg.Content)
				return nil
			})
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive assistant session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				fmt.Println(`Type a command ("summarize the project", "mark <task> as done", ...), or "exit".`)
				scanner := bufio.NewScanner(os.Stdin)
				for {
					fmt.Print("> ")
					if !scanner.Scan() {
						return scanner.Err()
					}
					line := strings.TrimSpace(scanner.Text())
					if line == "" {
						continue
					}
					if line == "exit" || line == "quit" {
						return nil
					}
					msg, err := e.SubmitCommandWait(ctx, line, viper.GetString("actor-id"))
					if err != nil {
						return err
					}
					fmt.Println(msg.Content)
				}
			})
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Project metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return printJSON(e.Summary())
			})
		},
	}
}

func workloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workload",
		Short: "Open tasks per assignee",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				w := e.Workload()
				if viper.GetBool("json") {
					return printJSON(w)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Assignee", "Open tasks"})
				for _, row := range w.Series {
					tw.AppendRow(table.Row{row.Assignee, row.Count})
				}
				tw.Render()
				fmt.Println("busiest:", w.Top)
				return nil
			})
		},
	}
}

func docCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "doc", Short: "Manage documents"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				docs, err := e.Repo.ListDocuments(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(docs)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Title", "Updated"})
				for _, d := range docs {
					tw.AppendRow(table.Row{d.ID, d.Title, d.UpdatedAt})
				}
				tw.Render()
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				d, err := e.Repo.GetDocument(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(d)
			})
		},
	})
	var title, body string
	putCmd := &cobra.Command{
		Use:   "put <id>",
		Short: "Create or overwrite a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				d, err := e.Repo.PutDocument(ctx, domain.Document{ID: args[0], Title: title, Body: body})
				if err != nil {
					return err
				}
				return printJSON(d)
			})
		},
	}
	putCmd.Flags().StringVar(&title, "title", "", "document title")
	putCmd.Flags().StringVar(&body, "body", "", "document body")
	_ = putCmd.MarkFlagRequired("title")
	cmd.AddCommand(putCmd)
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Audit log"}
	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				evts, err := e.Repo.ListEvents(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"TS", "Type", "Entity", "Actor", "Payload"})
				for _, ev := range evts {
					tw.AppendRow(table.Row{ev.TS, ev.Type, ev.EntityKind + "/" + ev.EntityID, ev.ActorID, ev.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 20, "number of events")
	cmd.AddCommand(tail)
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				handler, err := server.New(server.Config{Engine: e, BasePath: e.Config.Server.BasePath})
				if err != nil {
					return err
				}
				e.Log.Info("serving", zap.String("addr", addr))
				return http.ListenAndServe(addr, handler)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8787", "listen address")
	return cmd
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	return tw
}

func renderTaskTable(tasks []domain.Task) {
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Name", "Assignee", "Status", "Risk", "Due"})
	for _, t := range tasks {
		tw.AppendRow(table.Row{t.ID, t.Name, t.Assignee, t.Status, t.Risk, t.Due})
	}
	tw.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
