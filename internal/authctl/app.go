package authctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/flagx"
	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server"
	"github.com/dmitrijs2005/catalogauth/internal/server/config"
	"github.com/dmitrijs2005/catalogauth/internal/server/services"
)

const usage = `Usage: authctl <command> [flags]

Commands:
  useradd  -name <username> -roles <ROLE,ROLE>   create a user (password is prompted)
  migrate                                         apply database migrations
  sweep                                           delete expired revocation records
  help                                            show this message

Server configuration flags (-c, -d, -r, -u, ...) and AUTH_* variables apply to every command.
`

var ErrUsage = errors.New("usage error")

type storesOpener func(ctx context.Context, c *config.Config, l logging.Logger) (*server.Stores, error)

type App struct {
	in         *bufio.Reader
	out        io.Writer
	loadConfig func(args []string) (*config.Config, error)
	openStores storesOpener
	newLogger  func(level string) logging.Logger
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{
		in:         bufio.NewReader(in),
		out:        out,
		loadConfig: config.Load,
		openStores: server.NewStores,
		newLogger: func(level string) logging.Logger {
			return logging.New(os.Stderr, level)
		},
	}
}

// Run executes the command named by args[0] with the rest of args.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-h", "-help", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "useradd":
		return a.userAdd(ctx, rest)
	case "migrate":
		return a.migrate(ctx, rest)
	case "sweep":
		return a.sweep(ctx, rest)
	default:
		fmt.Fprintf(a.out, "Unknown command: %s\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (a *App) setup(ctx context.Context, args []string, needDB bool) (*config.Config, logging.Logger, *server.Stores, error) {
	cfg, err := a.loadConfig(args)
	if err != nil {
		return nil, nil, nil, err
	}
	if needDB && cfg.DatabaseDSN == "" {
		return nil, nil, nil, errors.New("no database configured (set -d or AUTH_DATABASE_DSN)")
	}

	l := a.newLogger(cfg.LogLevel)
	s, err := a.openStores(ctx, cfg, l)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, l, s, nil
}

func (a *App) userAdd(ctx context.Context, args []string) error {
	var name, roles string

	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&name, "name", "", "username")
	fs.StringVar(&roles, "roles", "", "comma-separated roles")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-name", "-roles"})); err != nil {
		return err
	}

	cfg, l, s, err := a.setup(ctx, args, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if name == "" {
		name, err = GetSimpleText(a.in, "Username", a.out)
		if err != nil {
			return err
		}
	}

	pw, err := GetNewPassword(a.in, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	svc, err := server.NewAuthService(cfg, s, l)
	if err != nil {
		return err
	}

	u, err := svc.Register(ctx, name, string(pw), splitRoles(roles))
	if err != nil {
		return fmt.Errorf("create user %q: %w", name, err)
	}

	fmt.Fprintf(a.out, "User %s created (id %s, roles %s)\n", u.UserName, u.ID, strings.Join(u.Roles, ","))
	return nil
}

func (a *App) migrate(ctx context.Context, args []string) error {
	_, _, s, err := a.setup(ctx, args, true)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(a.out, "Migrations applied")
	return nil
}

func (a *App) sweep(ctx context.Context, args []string) error {
	_, l, s, err := a.setup(ctx, args, false)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := services.NewSweeper(s.Revoked, l).Sweep(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Removed %d expired revocation records\n", n)
	return nil
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
