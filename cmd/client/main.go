// Command client is the local companion CLI: it drives the session manager
// against the embedded local store and, when a server address is configured,
// exercises the remote auth boundaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"subtrack/internal/client/api"
	"subtrack/internal/client/session"
	"subtrack/internal/client/store"
	"subtrack/internal/logging"
)

const usage = `usage: client [flags] <command>

commands:
  bootstrap              restore or create the local session
  signup                 register locally (and remotely with -server)
  signin                 sign in against the local user list
  signout                clear the session pointer
  profile                print the active profile
  sync                   gather buckets and record a sync
`

func main() {
	var (
		dbPath    = flag.String("db", defaultDBPath(), "path to the local store")
		serverURL = flag.String("server", "", "server base URL (optional)")
		email     = flag.String("email", "", "email address")
		pass      = flag.String("password", "", "password")
		name      = flag.String("name", "", "display name")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *dbPath, *serverURL, *email, *pass, *name); err != nil {
		log.Fatalf("client error: %v", err)
	}
}

func run(command, dbPath, serverURL, email, pass, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := logging.NewLogger(true)

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var pusher session.Pusher
	if serverURL != "" {
		pusher = api.NewPusher(api.New(serverURL))
	}
	manager := session.NewManager(st, pusher, nil, logger)

	switch command {
	case "bootstrap":
		if err := manager.Bootstrap(ctx); err != nil {
			return err
		}
		return printProfile(manager)

	case "signup":
		profile, err := manager.SignUp(ctx, email, pass, name)
		if err != nil {
			return err
		}
		fmt.Printf("signed up as %s (%s)\n", profile.Name, profile.ID)

		if serverURL != "" {
			remote := api.New(serverURL)
			first, last := splitName(name)
			if _, err := remote.Register(ctx, email, pass, first, last); err != nil {
				logger.Warn("remote registration failed", "error", err)
			} else {
				fmt.Println("registered remotely")
			}
		}
		return nil

	case "signin":
		if err := manager.SignIn(ctx, email, pass); err != nil {
			return err
		}
		return printProfile(manager)

	case "signout":
		return manager.SignOut(ctx)

	case "profile":
		if err := manager.Bootstrap(ctx); err != nil {
			return err
		}
		return printProfile(manager)

	case "sync":
		if err := manager.Bootstrap(ctx); err != nil {
			return err
		}
		if err := manager.SyncData(ctx); err != nil {
			return err
		}
		last, err := manager.LastSync(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("synced at %s\n", last.Format(time.RFC3339))
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printProfile(manager *session.Manager) error {
	p := manager.ActiveProfile()
	if p == nil {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s <%s>\nplan: %s (valid until %s)\ncurrency: %s, timezone: %s\n",
		p.Name, p.Email,
		p.Plan.Tier, p.Plan.ValidUntil.Format("2006-01-02"),
		p.Preferences.Currency, p.Preferences.Timezone,
	)
	return nil
}

func splitName(name string) (first, last string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "subtrack.db"
	}
	return filepath.Join(home, ".subtrack", "subtrack.db")
}
