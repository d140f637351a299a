// Command ek is a CLI client for the expiry-keeper document tracker.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vkuzn/expiry-keeper/internal/backend/local"
	"github.com/vkuzn/expiry-keeper/internal/backend/pocketbase"
	"github.com/vkuzn/expiry-keeper/internal/config"
	"github.com/vkuzn/expiry-keeper/internal/model"
	"github.com/vkuzn/expiry-keeper/internal/service"
	"github.com/vkuzn/expiry-keeper/internal/session"
	"github.com/vkuzn/expiry-keeper/internal/storage"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func stateDir() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, "expiry-keeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "expiry-keeper")
}

// app bundles the wired core for command handlers.
type app struct {
	cfg      *config.Store
	sessions *session.Store
	remote   *pocketbase.Client
	docs     *service.Documents
	auth     *service.Auth
	kv       storage.KV
}

// newApp opens the state store and wires the core. An unopenable store
// degrades to in-memory state for this invocation.
func newApp(dir string, logger *zap.Logger) *app {
	var kv storage.KV
	kv, err := storage.OpenBadger(dir)
	if err != nil {
		logger.Warn("state store unavailable, running in memory", zap.Error(err))
		kv = storage.NewMem()
	}

	cfg := config.New(kv, logger)
	sessions := session.New(kv, logger)
	remote := pocketbase.New(logger)
	localStore := local.New(kv, logger)
	docs := service.NewDocuments(cfg, localStore, remote, logger)
	auth := service.NewAuth(cfg, sessions, remote, docs, logger)

	return &app{cfg: cfg, sessions: sessions, remote: remote, docs: docs, auth: auth, kv: kv}
}

func (a *app) close() { _ = a.kv.Close() }

func usage() {
	fmt.Fprintf(os.Stderr, `ek CLI
Usage:
  ek [-state dir] <cmd> [args]

Commands:
  version
  login    -u <identifier> [-p <secret>]     (prompts when -p omitted)
  logout
  whoami
  list
  add      -title <t> [-category <c>] [-details <d>] -expires <YYYY-MM-DD>
  rm       -id <id>
  config                                     (show active configuration)
  set-backend  [-remote] [-url <base>] [-token <static>]
  test     -url <base>                       (connection test)
`)
	os.Exit(2)
}

func main() {
	state := flag.String("state", stateDir(), "state directory")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	if cmd == "version" {
		fmt.Printf("ek %s (%s)\n", version, buildDate)
		return
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := newApp(*state, logger)
	defer a.close()

	switch cmd {

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		id := fs.String("u", "", "identifier (username or email)")
		secret := fs.String("p", "", "secret")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -u")
			os.Exit(1)
		}
		if *secret == "" {
			s, err := promptSecret("Password: ")
			if err != nil {
				fail(err)
			}
			*secret = s
		}

		if err := a.auth.Login(ctx, *id, *secret); err != nil {
			if a.cfg.Current().UsePocketBase {
				fail(fmt.Errorf("login failed, check your remote credentials: %w", err))
			}
			fail(fmt.Errorf("login failed, local mode expects the demo credentials: %w", err))
		}
		fmt.Println("ok")

	case "logout":
		a.auth.Logout(ctx)
		fmt.Println("ok")

	case "whoami":
		if !a.auth.Restore(ctx) {
			fmt.Fprintln(os.Stderr, "not logged in")
			os.Exit(1)
		}
		sess, _ := a.sessions.Current()
		printJSON(map[string]any{
			"user":    sess.User,
			"isAdmin": a.sessions.IsAdmin(),
		})

	case "list":
		_ = a.auth.Restore(ctx)
		if err := a.docs.LoadAll(ctx); err != nil {
			fail(err)
		}
		type row struct{ ID, Title, Category, Expires string }
		rows := []row{}
		for _, d := range a.docs.Documents() {
			rows = append(rows, row{
				ID: d.ID, Title: d.Title, Category: d.Category,
				Expires: d.ExpirationDate.UTC().Format(time.RFC3339),
			})
		}
		printJSON(rows)

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		title := fs.String("title", "", "title")
		category := fs.String("category", "", "category")
		details := fs.String("details", "", "details")
		expires := fs.String("expires", "", "expiration date (YYYY-MM-DD)")
		_ = fs.Parse(flag.Args()[1:])
		if *title == "" || *expires == "" {
			fmt.Fprintln(os.Stderr, "need -title and -expires")
			os.Exit(1)
		}
		exp, err := time.Parse("2006-01-02", *expires)
		if err != nil {
			fail(fmt.Errorf("bad -expires: %w", err))
		}

		_ = a.auth.Restore(ctx)
		if err := a.docs.Add(ctx, model.NewDocument{
			Title: *title, Category: *category, Details: *details, ExpirationDate: exp,
		}); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ExitOnError)
		id := fs.String("id", "", "document id")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		_ = a.auth.Restore(ctx)
		if err := a.docs.Remove(ctx, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "config":
		printJSON(a.cfg.Current())

	case "set-backend":
		fs := flag.NewFlagSet("set-backend", flag.ExitOnError)
		remote := fs.Bool("remote", false, "use the remote record store")
		url := fs.String("url", "", "remote base URL")
		token := fs.String("token", "", "static fallback token")
		_ = fs.Parse(flag.Args()[1:])
		if *remote && *url == "" {
			fmt.Fprintln(os.Stderr, "remote backend needs -url")
			os.Exit(1)
		}
		a.cfg.Save(model.Config{UsePocketBase: *remote, RemoteURL: *url, RemoteAuthToken: *token})
		fmt.Println("ok")

	case "test":
		fs := flag.NewFlagSet("test", flag.ExitOnError)
		url := fs.String("url", "", "remote base URL")
		_ = fs.Parse(flag.Args()[1:])
		if *url == "" {
			fmt.Fprintln(os.Stderr, "need -url")
			os.Exit(1)
		}
		code, err := a.remote.Health(ctx, *url)
		if err != nil {
			fail(fmt.Errorf("connection test: %w", err))
		}
		if code != 0 {
			fmt.Printf("connected (service code %d)\n", code)
		} else {
			fmt.Println("connected")
		}

	default:
		usage()
	}
}

// promptSecret reads a secret without echo.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
