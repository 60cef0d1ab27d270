package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"trojan-manager/internal/credential"
	"trojan-manager/internal/database"
	"trojan-manager/internal/logger"
	"trojan-manager/internal/models"
	"trojan-manager/internal/units"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Store is the subset of database.Store the dispatcher drives.
type Store interface {
	CreateUserTable(ctx context.Context) error
	TruncateUserTable(ctx context.Context) (int64, error)
	DropUserTable(ctx context.Context) (int64, error)
	AddUser(ctx context.Context, username, password string) (int64, error)
	DelUser(ctx context.Context, username string) (int64, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetQuota(ctx context.Context, username, quotaText string) (int64, error)
	AddQuota(ctx context.Context, username, deltaText string) (int64, error)
	ClearUsage(ctx context.Context, username *string) (int64, error)
	Verify(ctx context.Context, hash string) (bool, error)
}

// Confirmer asks the operator a yes/no question before destructive work.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

type handler func(ctx context.Context, args []string) (int, error)

type Dispatcher struct {
	store    Store
	confirm  Confirmer
	out      io.Writer
	handlers map[string]handler
}

func NewDispatcher(store Store, confirm Confirmer, out io.Writer) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		confirm: confirm,
		out:     out,
	}
	d.handlers = map[string]handler{
		"CreateUserTable":   d.createUserTable,
		"TruncateUserTable": d.truncateUserTable,
		"DropUserTable":     d.dropUserTable,
		"Verify":            d.verify,
		"AddUser":           d.addUser,
		"DelUser":           d.delUser,
		"Show":              d.show,
		"SetQuota":          d.setQuota,
		"AddQuota":          d.addQuota,
		"ClearUsage":        d.clearUsage,
		"Hash":              d.hash,
		"Help":              d.help,
		"Exit":              d.quit,
		"Quit":              d.quit,
	}
	return d
}

// Execute splits line on whitespace and dispatches it.
func (d *Dispatcher) Execute(ctx context.Context, line string) (int, error) {
	return d.Dispatch(ctx, strings.Fields(line))
}

// Dispatch runs args[0] with the remaining tokens as arguments and returns
// the process exit code for it. Every failure is reported to the operator
// here; the only error returned is ErrQuit.
func (d *Dispatcher) Dispatch(ctx context.Context, args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}

	name, err := Resolve(args[0])
	if err != nil {
		var amb *AmbiguousError
		if errors.As(err, &amb) {
			logger.Log(logger.WARN, fmt.Sprintf("Ambiguous command %q", args[0]))
		} else {
			logger.Log(logger.ERROR, "Invalid command", args[0])
		}
		d.printHint()
		return 1, nil
	}

	code, err := d.handlers[name](ctx, args[1:])
	if errors.Is(err, ErrInvalidArguments) {
		logger.Log(logger.ERROR, "Invalid arguments", "Usage: "+usage[name])
		d.printHint()
		return 1, nil
	}
	return code, err
}

func (d *Dispatcher) printHint() {
	fmt.Fprintln(d.out, `Use "Help" command to list available commands`)
}

func arg(args []string, i int) (string, error) {
	if i >= len(args) {
		return "", ErrInvalidArguments
	}
	return args[i], nil
}

// result logs the outcome of a mutating store call and turns it into an
// exit code.
func result(operation string, affected int64, err error) int {
	if err != nil {
		logger.Log(logger.ERROR, operation+" failed", err)
		return 1
	}
	logger.Log(logger.DEBUG, fmt.Sprintf("%d row(s) affected", affected))
	return 0
}

func (d *Dispatcher) createUserTable(ctx context.Context, _ []string) (int, error) {
	err := d.store.CreateUserTable(ctx)
	if code := result("CreateUserTable", 0, err); code != 0 {
		return code, nil
	}
	logger.Log(logger.SUCCESS, "User table created")
	return 0, nil
}

func (d *Dispatcher) truncateUserTable(ctx context.Context, _ []string) (int, error) {
	logger.Log(logger.WARN, "By truncating you will LOSE ALL USER DATA")
	if !d.confirmed("Are you sure you want to truncate?") {
		return 0, nil
	}
	n, err := d.store.TruncateUserTable(ctx)
	return result("TruncateUserTable", n, err), nil
}

func (d *Dispatcher) dropUserTable(ctx context.Context, _ []string) (int, error) {
	logger.Log(logger.WARN, "By dropping the table you will LOSE ALL USER DATA")
	if !d.confirmed("Are you sure you want to drop the table?") {
		return 0, nil
	}
	n, err := d.store.DropUserTable(ctx)
	return result("DropUserTable", n, err), nil
}

// confirmed treats a failed prompt, e.g. end of input, as a refusal.
func (d *Dispatcher) confirmed(question string) bool {
	ok, err := d.confirm.Confirm(question)
	if err != nil {
		logger.Log(logger.WARN, "No answer received", err)
		ok = false
	}
	if !ok {
		logger.Log(logger.WARN, "Operation canceled")
	}
	return ok
}

func (d *Dispatcher) verify(ctx context.Context, args []string) (int, error) {
	hash, err := arg(args, 0)
	if err != nil {
		return 1, err
	}

	valid, err := d.store.Verify(ctx, hash)
	if err != nil {
		logger.Log(logger.ERROR, "Verify failed", err)
		return 1, nil
	}
	if !valid {
		logger.Log(logger.WARN, "Invalid user")
		return 1, nil
	}
	logger.Log(logger.INFO, "Valid user")
	return 0, nil
}

func (d *Dispatcher) addUser(ctx context.Context, args []string) (int, error) {
	username, err := arg(args, 0)
	if err != nil {
		return 1, err
	}
	password, err := arg(args, 1)
	if err != nil {
		return 1, err
	}

	n, err := d.store.AddUser(ctx, username, password)
	if errors.Is(err, database.ErrUserAlreadyExists) {
		logger.Log(logger.ERROR, fmt.Sprintf("User %s already exists", username))
		return 1, nil
	}
	return result("AddUser", n, err), nil
}

func (d *Dispatcher) delUser(ctx context.Context, args []string) (int, error) {
	username, err := arg(args, 0)
	if err != nil {
		return 1, err
	}
	n, err := d.store.DelUser(ctx, username)
	return result("DelUser", n, err), nil
}

func (d *Dispatcher) show(ctx context.Context, args []string) (int, error) {
	target, err := arg(args, 0)
	if err != nil {
		return 1, err
	}

	var withQuota bool
	switch strings.ToLower(target) {
	case "users":
	case "quota":
		withQuota = true
	default:
		return 1, ErrInvalidArguments
	}

	users, err := d.store.ListUsers(ctx)
	if err != nil {
		logger.Log(logger.ERROR, "Show failed", err)
		return 1, nil
	}

	d.renderUsers(users, withQuota)
	logger.Log(logger.INFO, fmt.Sprintf("Query complete, %d user(s) found in database", len(users)))
	return 0, nil
}

func (d *Dispatcher) renderUsers(users []models.User, withQuota bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(d.out)

	header := table.Row{"ID", "Username", "Password"}
	if withQuota {
		header = append(header, "Quota", "Download", "Upload")
	}
	tw.AppendHeader(header)

	for _, u := range users {
		row := table.Row{u.ID, u.Username, u.Password}
		if withQuota {
			row = append(row, formatQuota(&u), units.Human(u.Download), units.Human(u.Upload))
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func formatQuota(u *models.User) string {
	if u.Unlimited() {
		return "unlimited"
	}
	return units.Human(u.Quota)
}

func (d *Dispatcher) setQuota(ctx context.Context, args []string) (int, error) {
	return d.changeQuota(ctx, args, "SetQuota", d.store.SetQuota)
}

func (d *Dispatcher) addQuota(ctx context.Context, args []string) (int, error) {
	return d.changeQuota(ctx, args, "AddQuota", d.store.AddQuota)
}

func (d *Dispatcher) changeQuota(ctx context.Context, args []string, operation string,
	apply func(context.Context, string, string) (int64, error)) (int, error) {
	username, err := arg(args, 0)
	if err != nil {
		return 1, err
	}
	quota, err := arg(args, 1)
	if err != nil {
		return 1, err
	}

	n, err := apply(ctx, username, quota)
	if errors.Is(err, units.ErrInvalidQuota) {
		logger.Log(logger.ERROR, "Invalid quota input", quota)
		return 1, nil
	}
	return result(operation, n, err), nil
}

func (d *Dispatcher) clearUsage(ctx context.Context, args []string) (int, error) {
	var username *string
	if len(args) > 0 {
		username = &args[0]
	}
	n, err := d.store.ClearUsage(ctx, username)
	return result("ClearUsage", n, err), nil
}

func (d *Dispatcher) hash(_ context.Context, args []string) (int, error) {
	username, err := arg(args, 0)
	if err != nil {
		return 1, err
	}
	password, err := arg(args, 1)
	if err != nil {
		return 1, err
	}
	fmt.Fprintln(d.out, credential.Hash(username, password))
	return 0, nil
}

func (d *Dispatcher) help(_ context.Context, _ []string) (int, error) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "Commands are not case-sensitive and may be abbreviated")
	for _, c := range Commands {
		if line, ok := usage[c]; ok {
			fmt.Fprintln(d.out, "  "+line)
		}
	}
	fmt.Fprintln(d.out, "  Interactive / int")
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "Quota accepts bytes or a K, M, G, T, P suffix (powers of 1024).")
	fmt.Fprintln(d.out, "A negative quota means unlimited, zero blocks all traffic.")
	return 0, nil
}

func (d *Dispatcher) quit(_ context.Context, _ []string) (int, error) {
	logger.Log(logger.WARN, "Exiting")
	return 0, ErrQuit
}
