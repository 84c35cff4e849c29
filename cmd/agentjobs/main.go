package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentjobs/agentjobs/internal/config"
	"github.com/agentjobs/agentjobs/internal/logger"
	"github.com/agentjobs/agentjobs/internal/manager"
	"github.com/agentjobs/agentjobs/internal/migration"
	"github.com/agentjobs/agentjobs/internal/server"
	"github.com/agentjobs/agentjobs/internal/store"
	"github.com/agentjobs/agentjobs/internal/webhook"
	"github.com/agentjobs/agentjobs/pkg/model"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "create":
		runCreate(os.Args[2:])
	case "list":
		runList(os.Args[2:])
	case "show":
		runShow(os.Args[2:])
	case "next":
		runNext(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "progress":
		runProgress(os.Args[2:])
	case "search":
		runSearch(os.Args[2:])
	case "archive":
		runArchive(os.Args[2:])
	case "delete":
		runDelete(os.Args[2:])
	case "deliverable":
		runDeliverable(os.Args[2:])
	case "prompt":
		runPrompt(os.Args[2:])
	case "comment":
		runComment(os.Args[2:])
	case "webhook":
		runWebhook(os.Args[2:])
	case "migrate":
		runMigrate(os.Args[2:])
	case "version":
		fmt.Printf("agentjobs %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// findProjectRoot searches for .agentjobs/ in the current directory and
// ancestors; an empty result means the cwd is used with pure defaults.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, config.ConfigDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func loadConfig() (string, *config.Config) {
	root := findProjectRoot()
	if root == "" {
		root, _ = os.Getwd()
	}
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	return root, cfg
}

// openManager builds the store and manager without webhook delivery,
// for the one-shot CLI commands.
func openManager() (*manager.Manager, *config.Config) {
	root, cfg := loadConfig()
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	taskStore, err := store.NewTaskStore(cfg.ResolveTasksDir(root), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open task store: %v\n", err)
		os.Exit(1)
	}
	return manager.New(taskStore, nil, log), cfg
}

func runInit(args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	if err := config.Write(root, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	for _, sub := range []string{cfg.TasksDir, cfg.PromptsDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "init: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Initialized %s in %s\n", config.ConfigDirName, root)
}

func runServe(args []string) {
	var host string
	var port int
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--host":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--host requires a value")
				os.Exit(1)
			}
			i++
			host = args[i]
		case "--port":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--port requires a value")
				os.Exit(1)
			}
			i++
			if _, err := fmt.Sscanf(args[i], "%d", &port); err != nil {
				fmt.Fprintf(os.Stderr, "invalid port: %s\n", args[i])
				os.Exit(1)
			}
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: agentjobs serve [--host <host>] [--port <port>]\n", args[i])
			os.Exit(1)
		}
	}

	root, cfg := loadConfig()
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	taskStore, err := store.NewTaskStore(cfg.ResolveTasksDir(root), log)
	if err != nil {
		log.Fatal("open task store", zap.Error(err))
	}
	webhookStore, err := store.NewWebhookStore(cfg.ResolveWebhooksFile(root), log)
	if err != nil {
		log.Fatal("open webhook store", zap.Error(err))
	}

	dispatcher := webhook.NewDispatcher(webhookStore, log, cfg.Webhooks.Workers, cfg.Webhooks.QueueSize)
	webhookManager := webhook.NewManager(webhookStore, dispatcher, log)
	taskManager := manager.New(taskStore, webhookManager, log)

	srv, err := server.New(taskManager, webhookManager, cfg.ProjectName, log)
	if err != nil {
		log.Fatal("build server", zap.Error(err))
	}

	watcher, err := store.NewWatcher(taskStore.Dir(), log)
	if err != nil {
		log.Fatal("watch task directory", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", cfg.Addr()))
		if err := srv.Start(cfg.Addr()); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := watcher.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		dispatcher.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("serve", zap.Error(err))
	}
	log.Info("shutdown complete")
}

func runCreate(args []string) {
	var title, description, priority, category, assignedTo, effort, summary string
	var tags []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--title":
			i = requireValue(args, i, "--title")
			title = args[i]
		case "--description":
			i = requireValue(args, i, "--description")
			description = args[i]
		case "--priority":
			i = requireValue(args, i, "--priority")
			priority = args[i]
		case "--category":
			i = requireValue(args, i, "--category")
			category = args[i]
		case "--assigned-to":
			i = requireValue(args, i, "--assigned-to")
			assignedTo = args[i]
		case "--effort":
			i = requireValue(args, i, "--effort")
			effort = args[i]
		case "--summary":
			i = requireValue(args, i, "--summary")
			summary = args[i]
		case "--tag":
			i = requireValue(args, i, "--tag")
			tags = append(tags, args[i])
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: agentjobs create --title <title> [options]\n", args[i])
			os.Exit(1)
		}
	}
	if title == "" {
		fmt.Fprintln(os.Stderr, "usage: agentjobs create --title <title> [--description <text>] [--priority <p>] [--category <c>] [--assigned-to <who>] [--effort <e>] [--summary <s>] [--tag <t>]...")
		os.Exit(1)
	}

	m, _ := openManager()
	task, err := m.Create(manager.CreateRequest{
		Title:           title,
		Description:     description,
		Priority:        model.Priority(priority),
		Category:        category,
		AssignedTo:      assignedTo,
		EstimatedEffort: effort,
		HumanSummary:    summary,
		Tags:            tags,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s: %s\n", task.ID, task.Title)
}

func runList(args []string) {
	var statusFilter, priorityFilter string
	jsonOutput := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--status":
			i = requireValue(args, i, "--status")
			statusFilter = args[i]
		case "--priority":
			i = requireValue(args, i, "--priority")
			priorityFilter = args[i]
		case "--json":
			jsonOutput = true
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: agentjobs list [--status <s>] [--priority <p>] [--json]\n", args[i])
			os.Exit(1)
		}
	}

	var status *model.Status
	var priority *model.Priority
	if statusFilter != "" {
		parsed, err := model.ParseStatus(statusFilter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list: %v\n", err)
			os.Exit(1)
		}
		status = &parsed
	}
	if priorityFilter != "" {
		parsed, err := model.ParsePriority(priorityFilter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list: %v\n", err)
			os.Exit(1)
		}
		priority = &parsed
	}

	m, _ := openManager()
	tasks, err := m.List(status, priority)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tasks)
		return
	}
	printTaskTable(tasks)
}

func runShow(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs show <task-id>")
		os.Exit(1)
	}
	m, _ := openManager()
	task, err := m.Get(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "show: %v\n", err)
		os.Exit(1)
	}
	printJSON(task)
}

func runNext(args []string) {
	var priorityFilter string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--priority":
			i = requireValue(args, i, "--priority")
			priorityFilter = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: agentjobs next [--priority <p>]\n", args[i])
			os.Exit(1)
		}
	}

	var priority *model.Priority
	if priorityFilter != "" {
		parsed, err := model.ParsePriority(priorityFilter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "next: %v\n", err)
			os.Exit(1)
		}
		priority = &parsed
	}

	m, _ := openManager()
	task, err := m.GetNextTask(priority)
	if err != nil {
		fmt.Fprintf(os.Stderr, "next: %v\n", err)
		os.Exit(1)
	}
	if task == nil {
		fmt.Println("No ready tasks.")
		return
	}
	fmt.Printf("%s [%s] %s\n", task.ID, task.Priority, task.Title)
}

func runStatus(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs status <task-id> <new-status> [--author <who>] [--summary <text>] [--details <text>]")
		os.Exit(1)
	}
	id, statusArg := args[0], args[1]
	author := "cli"
	var summary, details string
	for i := 2; i < len(args); i++ {
		switch args[i] {
		case "--author":
			i = requireValue(args, i, "--author")
			author = args[i]
		case "--summary":
			i = requireValue(args, i, "--summary")
			summary = args[i]
		case "--details":
			i = requireValue(args, i, "--details")
			details = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			os.Exit(1)
		}
	}
	if summary == "" {
		summary = "Status changed to " + statusArg + "."
	}

	status, err := model.ParseStatus(statusArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}

	m, _ := openManager()
	task, err := m.UpdateStatus(id, status, author, summary, details, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s is now %s\n", task.ID, task.Status)
}

func runProgress(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs progress <task-id> <summary> [--author <who>] [--details <text>]")
		os.Exit(1)
	}
	id, summary := args[0], args[1]
	author := "cli"
	var details string
	for i := 2; i < len(args); i++ {
		switch args[i] {
		case "--author":
			i = requireValue(args, i, "--author")
			author = args[i]
		case "--details":
			i = requireValue(args, i, "--details")
			details = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			os.Exit(1)
		}
	}

	m, _ := openManager()
	task, err := m.AddProgressUpdate(id, author, summary, details)
	if err != nil {
		fmt.Fprintf(os.Stderr, "progress: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Progress recorded for %s (%d updates)\n", task.ID, len(task.StatusUpdates))
}

func runSearch(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs search <query>")
		os.Exit(1)
	}
	m, _ := openManager()
	tasks, err := m.Search(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: %v\n", err)
		os.Exit(1)
	}
	printTaskTable(tasks)
}

func runArchive(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs archive <task-id> [--author <who>]")
		os.Exit(1)
	}
	author := ""
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--author":
			i = requireValue(args, i, "--author")
			author = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			os.Exit(1)
		}
	}
	m, _ := openManager()
	task, err := m.Archive(args[0], author)
	if err != nil {
		fmt.Fprintf(os.Stderr, "archive: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Archived %s\n", task.ID)
}

func runDelete(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs delete <task-id> --force")
		os.Exit(1)
	}
	force := false
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--force":
			force = true
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			os.Exit(1)
		}
	}
	if !force {
		fmt.Fprintln(os.Stderr, "delete permanently removes the record; pass --force to confirm (or use 'archive')")
		os.Exit(1)
	}

	m, _ := openManager()
	deleted, err := m.Delete(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "delete: %v\n", err)
		os.Exit(1)
	}
	if !deleted {
		fmt.Fprintf(os.Stderr, "delete: task '%s' not found\n", args[0])
		os.Exit(1)
	}
	fmt.Printf("Deleted %s\n", args[0])
}

func runDeliverable(args []string) {
	if len(args) < 3 || args[0] != "complete" {
		fmt.Fprintln(os.Stderr, "usage: agentjobs deliverable complete <task-id> <path>")
		os.Exit(1)
	}
	m, _ := openManager()
	task, err := m.MarkDeliverableComplete(args[1], args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "deliverable: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Marked deliverable %s complete on %s\n", args[2], task.ID)
}

func runPrompt(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs prompt <starter|add> <task-id> [options]")
		os.Exit(1)
	}
	switch args[0] {
	case "starter":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: agentjobs prompt starter <task-id>")
			os.Exit(1)
		}
		m, _ := openManager()
		starter, err := m.GetStarterPrompt(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "prompt: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(starter)
	case "add":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: agentjobs prompt add <task-id> <content> [--author <who>] [--context <text>]")
			os.Exit(1)
		}
		id, content := args[1], args[2]
		author := "cli"
		var promptContext string
		for i := 3; i < len(args); i++ {
			switch args[i] {
			case "--author":
				i = requireValue(args, i, "--author")
				author = args[i]
			case "--context":
				i = requireValue(args, i, "--context")
				promptContext = args[i]
			default:
				fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
				os.Exit(1)
			}
		}
		m, _ := openManager()
		task, err := m.AddFollowupPrompt(id, author, content, promptContext)
		if err != nil {
			fmt.Fprintf(os.Stderr, "prompt: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added follow-up prompt to %s (%d total)\n", task.ID, len(task.Prompts.Followups))
	default:
		fmt.Fprintf(os.Stderr, "unknown prompt subcommand: %s\nusage: agentjobs prompt <starter|add> <task-id> [options]\n", args[0])
		os.Exit(1)
	}
}

func runComment(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs comment <task-id> <content> [--author <who>] [--kind <kind>] [--reply-to <comment-id>]")
		os.Exit(1)
	}
	id, content := args[0], args[1]
	author := "cli"
	var kind, replyTo string
	for i := 2; i < len(args); i++ {
		switch args[i] {
		case "--author":
			i = requireValue(args, i, "--author")
			author = args[i]
		case "--kind":
			i = requireValue(args, i, "--kind")
			kind = args[i]
		case "--reply-to":
			i = requireValue(args, i, "--reply-to")
			replyTo = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			os.Exit(1)
		}
	}

	m, _ := openManager()
	comment, err := m.AddComment(id, author, content, model.CommentKind(kind), replyTo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "comment: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added comment %s to %s\n", comment.ID, id)
}

func runWebhook(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs webhook <add|list|rm|test> [options]")
		os.Exit(1)
	}

	root, cfg := loadConfig()
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	webhookStore, err := store.NewWebhookStore(cfg.ResolveWebhooksFile(root), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "webhook: %v\n", err)
		os.Exit(1)
	}
	dispatcher := webhook.NewDispatcher(webhookStore, log, cfg.Webhooks.Workers, cfg.Webhooks.QueueSize)
	defer dispatcher.Close()
	wm := webhook.NewManager(webhookStore, dispatcher, log)

	switch args[0] {
	case "add":
		rest := args[1:]
		var url, secret string
		var events []string
		for i := 0; i < len(rest); i++ {
			switch rest[i] {
			case "--url":
				i = requireValue(rest, i, "--url")
				url = rest[i]
			case "--event":
				i = requireValue(rest, i, "--event")
				events = append(events, rest[i])
			case "--secret":
				i = requireValue(rest, i, "--secret")
				secret = rest[i]
			default:
				fmt.Fprintf(os.Stderr, "unknown flag: %s\n", rest[i])
				os.Exit(1)
			}
		}
		if url == "" || len(events) == 0 {
			fmt.Fprintln(os.Stderr, "usage: agentjobs webhook add --url <url> --event <event>... [--secret <secret>]")
			os.Exit(1)
		}
		hook, err := wm.Create(url, events, secret, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "webhook add: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registered webhook %s\n", hook.ID)
	case "list":
		hooks, err := wm.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "webhook list: %v\n", err)
			os.Exit(1)
		}
		if len(hooks) == 0 {
			fmt.Println("No webhooks registered.")
			return
		}
		for _, hook := range hooks {
			state := "inactive"
			if hook.Active {
				state = "active"
			}
			fmt.Printf("%s  %s  %s  events=%s  triggers=%d\n",
				hook.ID, state, hook.URL, strings.Join(hook.Events, ","), hook.TriggerCount)
		}
	case "rm":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: agentjobs webhook rm <webhook-id>")
			os.Exit(1)
		}
		deleted, err := wm.Delete(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "webhook rm: %v\n", err)
			os.Exit(1)
		}
		if !deleted {
			fmt.Fprintf(os.Stderr, "webhook rm: '%s' not found\n", args[1])
			os.Exit(1)
		}
		fmt.Printf("Removed webhook %s\n", args[1])
	case "test":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: agentjobs webhook test <webhook-id>")
			os.Exit(1)
		}
		if err := wm.Test(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "webhook test: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Delivered test event to webhook %s\n", args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown webhook subcommand: %s\nusage: agentjobs webhook <add|list|rm|test> [options]\n", args[0])
		os.Exit(1)
	}
}

func runMigrate(args []string) {
	var sources []string
	var targetDir, promptsDir, report string
	dryRun := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--source":
			i = requireValue(args, i, "--source")
			sources = append(sources, args[i])
		case "--target":
			i = requireValue(args, i, "--target")
			targetDir = args[i]
		case "--prompts":
			i = requireValue(args, i, "--prompts")
			promptsDir = args[i]
		case "--report":
			i = requireValue(args, i, "--report")
			report = args[i]
		case "--dry-run":
			dryRun = true
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: agentjobs migrate --source <glob>... [--target <dir>] [--prompts <dir>] [--report <file>] [--dry-run]\n", args[i])
			os.Exit(1)
		}
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "usage: agentjobs migrate --source <glob>... [--target <dir>] [--prompts <dir>] [--report <file>] [--dry-run]")
		os.Exit(1)
	}

	root, cfg := loadConfig()
	if targetDir == "" {
		targetDir = cfg.ResolveTasksDir(root)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	results, err := migration.Migrate(migration.Options{
		SourcePatterns: sources,
		TargetDir:      targetDir,
		PromptsDir:     promptsDir,
		DryRun:         dryRun,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	succeeded, failed := 0, 0
	for _, result := range results {
		if result.Success {
			succeeded++
		} else {
			failed++
		}
	}
	fmt.Printf("Migrated %d task(s), %d failed\n", succeeded, failed)

	if report != "" {
		if err := migration.WriteReport(results, report, dryRun); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", report)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// requireValue advances past a value-taking flag, exiting when the
// value is missing.
func requireValue(args []string, i int, flag string) int {
	if i+1 >= len(args) {
		fmt.Fprintf(os.Stderr, "%s requires a value\n", flag)
		os.Exit(1)
	}
	return i + 1
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func printTaskTable(tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return
	}
	for _, task := range tasks {
		fmt.Printf("%-12s  %-17s  %-8s  %s\n", task.ID, task.Status, task.Priority, task.Title)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `agentjobs %s — task lifecycle tracker

Usage: agentjobs <command> [options]

Project:
  init [dir]                Initialize %s/ and task directories
  serve [--host] [--port]   Run the API server and dashboard

Tasks:
  create --title <t> [options]          Create a task
  list [--status] [--priority] [--json] List tasks
  show <task-id>                        Print one task as JSON
  next [--priority <p>]                 Most urgent ready task
  status <task-id> <status> [options]   Change status (audited)
  progress <task-id> <summary>          Record progress without a transition
  search <query>                        Substring search
  archive <task-id>                     Soft-delete (status archived)
  delete <task-id> --force              Hard-delete the record

Details:
  deliverable complete <task-id> <path> Mark a deliverable completed
  prompt starter <task-id>              Print the starter prompt
  prompt add <task-id> <content>        Append a follow-up prompt
  comment <task-id> <content>           Add a comment

Integration:
  webhook add --url <u> --event <e>...  Register a webhook
  webhook list | rm <id> | test <id>    Manage webhooks
  migrate --source <glob>...            Import Markdown task files

  version                               Show version
  help                                  Show this help

`, version, config.ConfigDirName)
}
