package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"todos/internal/client"
	"todos/internal/config"
	"todos/internal/models"
	"todos/internal/view"
)

func main() {
	cfg := config.New()
	api := client.New(cfg.APIURL, nil)
	os.Exit(run(context.Background(), api, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app - один запуск CLI: контроллер состояния и потоки ввода-вывода
type app struct {
	api    *client.Client
	ctrl   *view.Controller
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	// assumeYes пропускает вопрос перед удалением
	assumeYes bool
}

func run(ctx context.Context, api *client.Client, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printHelp(stdout)
		return 1
	}

	a := &app{api: api, in: bufio.NewReader(stdin), out: stdout, errOut: stderr}
	a.ctrl = view.NewController(api, view.Options{Confirm: a.confirm})
	defer a.ctrl.Close()

	command := args[0]
	switch command {
	case "list":
		return a.handleListCommand(ctx, args[1:])
	case "add":
		return a.handleAddCommand(ctx, args[1:])
	case "edit":
		return a.handleEditCommand(ctx, args[1:])
	case "delete":
		return a.handleDeleteCommand(ctx, args[1:])
	case "export":
		return a.handleExportCommand(ctx, args[1:])
	case "help", "-h", "--help":
		printHelp(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printHelp(stderr)
		return 1
	}
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// fail печатает сообщение из состояния (как его увидел бы пользователь формы)
func (a *app) fail() int {
	if msg := a.ctrl.State().Error; msg != "" {
		fmt.Fprintf(a.errOut, "Error: %s\n", msg)
	}
	return 1
}

func (a *app) handleListCommand(ctx context.Context, args []string) int {
	listCmd := a.newFlagSet("list")
	if err := listCmd.Parse(args); err != nil {
		return 1
	}

	if err := a.ctrl.Load(ctx); err != nil {
		return a.fail()
	}

	tasks := a.ctrl.State().Tasks
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return 0
	}
	for _, task := range tasks {
		printTask(a.out, task)
	}
	return 0
}

func (a *app) handleAddCommand(ctx context.Context, args []string) int {
	addCmd := a.newFlagSet("add")
	title := addCmd.String("title", "", "Task title")
	desc := addCmd.String("desc", "", "Task description")
	if err := addCmd.Parse(args); err != nil {
		return 1
	}

	a.ctrl.SetAddForm(*title, *desc)
	task, err := a.ctrl.Add(ctx)
	if errors.Is(err, view.ErrIncompleteForm) {
		fmt.Fprintln(a.errOut, "Error: --title and --desc are required")
		return 1
	}
	if err != nil {
		return a.fail()
	}

	fmt.Fprintf(a.out, "%s (ID %s)\n", a.ctrl.State().Message, task.ID)
	return 0
}

func (a *app) handleEditCommand(ctx context.Context, args []string) int {
	editCmd := a.newFlagSet("edit")
	id := editCmd.String("id", "", "Task ID to edit")
	title := editCmd.String("title", "", "New title (default: keep)")
	desc := editCmd.String("desc", "", "New description (default: keep)")
	if err := editCmd.Parse(args); err != nil {
		return 1
	}
	if *id == "" {
		fmt.Fprintln(a.errOut, "Error: --id is required")
		return 1
	}

	if err := a.ctrl.Load(ctx); err != nil {
		return a.fail()
	}
	if err := a.ctrl.StartEdit(*id); err != nil {
		fmt.Fprintf(a.errOut, "Error: task %s not found\n", *id)
		return 1
	}

	// форма уже содержит текущие значения, флаги их заменяют
	form := *a.ctrl.State().Edit
	if *title != "" {
		form.Title = *title
	}
	if *desc != "" {
		form.Description = *desc
	}
	a.ctrl.SetEditForm(form.Title, form.Description)

	if _, err := a.ctrl.Save(ctx); err != nil {
		if errors.Is(err, view.ErrIncompleteForm) {
			fmt.Fprintln(a.errOut, "Error: title and description must not be empty")
			return 1
		}
		return a.fail()
	}

	fmt.Fprintln(a.out, a.ctrl.State().Message)
	return 0
}

func (a *app) handleDeleteCommand(ctx context.Context, args []string) int {
	deleteCmd := a.newFlagSet("delete")
	id := deleteCmd.String("id", "", "Task ID to delete")
	yes := deleteCmd.Bool("yes", false, "Do not ask for confirmation")
	if err := deleteCmd.Parse(args); err != nil {
		return 1
	}
	if *id == "" {
		fmt.Fprintln(a.errOut, "Error: --id is required")
		return 1
	}
	a.assumeYes = *yes

	if err := a.ctrl.Load(ctx); err != nil {
		return a.fail()
	}

	err := a.ctrl.Delete(ctx, *id)
	switch {
	case errors.Is(err, view.ErrUnknownTask):
		fmt.Fprintf(a.errOut, "Error: task %s not found\n", *id)
		return 1
	case errors.Is(err, view.ErrNotConfirmed):
		fmt.Fprintln(a.out, "Cancelled")
		return 0
	case err != nil:
		return a.fail()
	}

	fmt.Fprintf(a.out, "Task %s deleted\n", *id)
	return 0
}

func (a *app) handleExportCommand(ctx context.Context, args []string) int {
	exportCmd := a.newFlagSet("export")
	format := exportCmd.String("format", "json", "Export format (json|csv|pdf)")
	outFile := exportCmd.String("out", "", "Output file path")
	if err := exportCmd.Parse(args); err != nil {
		return 1
	}
	if *outFile == "" {
		fmt.Fprintln(a.errOut, "Error: --out is required")
		return 1
	}

	f, err := os.Create(*outFile)
	if err != nil {
		fmt.Fprintf(a.errOut, "Error creating file: %v\n", err)
		return 1
	}

	err = a.api.Export(ctx, *format, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(*outFile)
		fmt.Fprintf(a.errOut, "Error exporting tasks: %v\n", err)
		return 1
	}

	fmt.Fprintf(a.out, "Tasks exported to %s in %s format\n", *outFile, *format)
	return 0
}

func (a *app) confirm(task models.Task) bool {
	if a.assumeYes {
		return true
	}
	fmt.Fprintf(a.out, "Delete this todo? %q [y/N]: ", task.Title)
	answer, _ := a.in.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printTask(w io.Writer, task models.Task) {
	fmt.Fprintf(w, "%s: %s\n", task.ID, task.Title)
	if task.Description != "" {
		fmt.Fprintf(w, "    %s\n", task.Description)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Usage: todo-app <command> [flags]

Commands:
  list                                        List tasks (newest first)
  add     --title="..." --desc="..."          Add new task
  edit    --id=ID [--title="..."] [--desc=""] Edit task
  delete  --id=ID [--yes]                     Delete task (asks for confirmation)
  export  --format=json|csv|pdf --out=FILE    Export tasks

Environment:
  API_URL  API base URL (default http://localhost:8000)`)
}
