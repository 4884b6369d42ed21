package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskpad/internal/export"
	"taskpad/internal/query"
	"taskpad/internal/render"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

// Options tune output behavior from root flags.
type Options struct {
	Group bool // list grouped by pending/done
	Out   io.Writer
	Err   io.Writer
	Today func() task.Date
}

type runner struct {
	store *store.Store
	out   io.Writer
	err   io.Writer
	st    render.Styles
	today task.Date
	group bool
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(s *store.Store, args []string, opt Options) int {
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if opt.Err == nil {
		opt.Err = os.Stderr
	}
	if opt.Today == nil {
		opt.Today = task.Today
	}
	r := &runner{
		store: s,
		out:   opt.Out,
		err:   opt.Err,
		st:    render.NewStyles(lipgloss.NewRenderer(opt.Out)),
		today: opt.Today(),
		group: opt.Group,
	}

	if len(args) == 0 {
		PrintHelp(r.out)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(r.out)
		return 0
	case "add":
		return r.doAdd(a)
	case "ls", "list":
		return r.doList(a)
	case "search":
		if len(a) == 0 {
			r.fail("usage: todo search <query...>")
			return 2
		}
		return r.doList([]string{"--search", strings.Join(a, " ")})
	case "done", "toggle":
		id, code := r.oneID(cmd, a)
		if code != 0 {
			return code
		}
		return r.doToggle(id)
	case "rm", "delete":
		id, code := r.oneID(cmd, a)
		if code != 0 {
			return code
		}
		return r.doRemove(id)
	case "edit":
		return r.doEdit(a)
	case "sort":
		return r.doSort(a)
	case "export":
		return r.doExport(a)
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(r.err)
	PrintHelp(r.err)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `todo - a small task list

Usage:
  todo                       Open the interactive list
  todo <subcommand> [args]

Subcommands:
  add <title...> [-d desc] [-p high|medium|low] [--due YYYY-MM-DD]
                             Add a task (priority defaults to medium)
  ls [-f filter] [-s query]  List tasks; filter is all|completed|pending|highPriority
  search <query...>          List tasks whose title or description match
  done <id>                  Toggle completion
  rm <id>                    Delete a task
  edit <id> [--title t] [-d|--desc desc] [-p prio] [--due date | --no-due]
                             Change some fields of a task
  sort <dueDate|priority>    Reorder the list
  export [--format json|yaml|toml]
                             Print all tasks
  tui                        Open the interactive list

Examples:
  todo add Buy milk -d 2% -p high
  todo ls -f pending
  todo done 1718000000000
  todo sort priority
`)
}

// -------------- subcommand impls ----------------

func (r *runner) doAdd(args []string) int {
	fs := r.flagSet("add")
	desc := fs.String("d", "", "description")
	prio := fs.String("p", string(task.PriorityMedium), "priority: high, medium or low")
	due := fs.String("due", "", "due date YYYY-MM-DD")
	rest, err := parseInterleaved(fs, args)
	if err != nil {
		return 2
	}
	title := strings.Join(rest, " ")
	if strings.TrimSpace(title) == "" {
		r.fail("usage: todo add <title...>")
		return 2
	}
	p, err := task.ParsePriority(*prio)
	if err != nil {
		r.fail("add: " + err.Error())
		return 2
	}
	d, err := task.ParseDate(*due)
	if err != nil {
		r.fail("add: " + err.Error())
		return 2
	}
	t, err := r.store.Add(title, *desc, p, d)
	if err != nil {
		r.fail("add: " + err.Error())
		return 2
	}
	r.ok(fmt.Sprintf("added #%d", t.ID))
	return 0
}

func (r *runner) doList(args []string) int {
	fs := r.flagSet("ls")
	filter := fs.String("f", "all", "filter: all, completed, pending, highPriority")
	fs.StringVar(filter, "filter", "all", "filter: all, completed, pending, highPriority")
	search := fs.String("s", "", "search title and description")
	fs.StringVar(search, "search", "", "search title and description")
	group := fs.Bool("group", r.group, "group output by pending/done")
	if _, err := parseInterleaved(fs, args); err != nil {
		return 2
	}

	tasks := r.store.View(query.ParseFilter(*filter), *search)
	d, p := query.Stats(tasks)

	var lines []string
	lines = append(lines, r.st.Header("Tasks", d, p))
	lines = append(lines, r.st.Muted.Render(render.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")
	if *group {
		lines = append(lines, r.groupLines(tasks)...)
	} else {
		lines = append(lines, r.flatLines(tasks)...)
	}
	lines = append(lines, "")
	lines = append(lines, r.st.Muted.Render("Tip: todo add <title> -p high --due YYYY-MM-DD"))
	fmt.Fprintln(r.out, r.st.Panel(lines))
	return 0
}

func (r *runner) doToggle(id int64) int {
	t, found := r.store.Toggle(id)
	if !found {
		r.miss(id)
		return 0
	}
	if t.Completed {
		r.ok(fmt.Sprintf("completed #%d", id))
	} else {
		r.ok(fmt.Sprintf("reopened #%d", id))
	}
	return 0
}

func (r *runner) doRemove(id int64) int {
	if !r.store.Delete(id) {
		r.miss(id)
		return 0
	}
	r.ok(fmt.Sprintf("removed #%d", id))
	return 0
}

func (r *runner) doEdit(args []string) int {
	fs := r.flagSet("edit")
	title := fs.String("title", "", "new title")
	desc := fs.String("d", "", "new description")
	fs.StringVar(desc, "desc", "", "new description")
	prio := fs.String("p", "", "new priority")
	due := fs.String("due", "", "new due date YYYY-MM-DD")
	noDue := fs.Bool("no-due", false, "clear the due date")
	rest, err := parseInterleaved(fs, args)
	if err != nil {
		return 2
	}
	if len(rest) != 1 {
		r.fail("usage: todo edit <id> [flags]")
		return 2
	}
	id, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		r.fail("edit: not a number: " + rest[0])
		return 2
	}

	var patch task.Patch
	var bad error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "d", "desc":
			patch.Description = desc
		case "p":
			p, err := task.ParsePriority(*prio)
			if err != nil {
				bad = err
				return
			}
			patch.Priority = &p
		case "due":
			d, err := task.ParseDate(*due)
			if err != nil {
				bad = err
				return
			}
			if d == nil {
				patch.ClearDueDate = true
				return
			}
			patch.DueDate = d
		case "no-due":
			patch.ClearDueDate = *noDue
		}
	})
	if bad != nil {
		r.fail("edit: " + bad.Error())
		return 2
	}
	if patch.Empty() {
		r.fail("edit: nothing to change")
		return 2
	}

	_, found, err := r.store.Update(id, patch)
	if err != nil {
		r.fail(err.Error())
		return 2
	}
	if !found {
		r.miss(id)
		return 0
	}
	r.ok(fmt.Sprintf("updated #%d", id))
	return 0
}

func (r *runner) doSort(args []string) int {
	if len(args) != 1 {
		r.fail("usage: todo sort <dueDate|priority>")
		return 2
	}
	key, ok := query.ParseSortKey(args[0])
	if !ok {
		r.fail("sort: unknown key: " + args[0])
		return 2
	}
	r.store.Sort(key)
	r.ok("sorted by " + string(key))
	return 0
}

func (r *runner) doExport(args []string) int {
	fs := r.flagSet("export")
	format := fs.String("format", "json", "json, yaml or toml")
	if _, err := parseInterleaved(fs, args); err != nil {
		return 2
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		r.fail("export: " + err.Error())
		return 2
	}
	if err := export.Write(r.out, r.store.Tasks(), f); err != nil {
		r.fail("export: " + err.Error())
		return 1
	}
	return 0
}

// -------------- helpers --------------

func (r *runner) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.err)
	return fs
}

// parseInterleaved lets flags follow positional words, e.g. `add Buy milk -p high`.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func (r *runner) oneID(cmd string, a []string) (int64, int) {
	if len(a) != 1 {
		r.fail(fmt.Sprintf("usage: todo %s <id>", cmd))
		return 0, 2
	}
	id, err := strconv.ParseInt(a[0], 10, 64)
	if err != nil {
		r.fail(cmd + ": not a number: " + a[0])
		return 0, 2
	}
	return id, 0
}

func (r *runner) ok(msg string) {
	fmt.Fprintln(r.out, r.st.Success.Render("✔ "+msg))
}

func (r *runner) fail(msg string) {
	fmt.Fprintln(r.err, r.st.Error.Render("✖ "+msg))
}

func (r *runner) miss(id int64) {
	fmt.Fprintln(r.err, r.st.Muted.Render(fmt.Sprintf("no task with id %d (nothing changed)", id)))
	fmt.Fprintln(r.err, r.st.Muted.Render("Hint: run `todo ls` to see ids"))
}

func (r *runner) flatLines(tasks []task.Task) []string {
	if len(tasks) == 0 {
		return []string{r.st.Muted.Render("no tasks")}
	}
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		id := r.st.Muted.Render(fmt.Sprintf("%13d", t.ID))
		out = append(out, id+" "+r.st.Line(t, r.today))
	}
	return out
}

func (r *runner) groupLines(tasks []task.Task) []string {
	pend := query.FilterTasks(tasks, query.FilterPending)
	done := query.FilterTasks(tasks, query.FilterCompleted)

	var lines []string
	lines = append(lines, r.st.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, r.st.Muted.Render("(none)"))
	} else {
		lines = append(lines, r.flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, r.st.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, r.st.Muted.Render("(none)"))
	} else {
		lines = append(lines, r.flatLines(done)...)
	}
	return lines
}
