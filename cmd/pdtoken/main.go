// Command pdtoken exchanges Pipedream OAuth client credentials for an
// access token.
//
// Usage:
//
//	PIPEDREAM_CLIENT_ID=... PIPEDREAM_CLIENT_SECRET=... pdtoken
//
// The token goes to stdout, alone on its own line, so the output can feed
// straight into scripts:
//
//	curl -H "Authorization: Bearer $(pdtoken)" ...
//
// Expiry and workspace details go to stderr. Credentials come from the
// environment or a .env file; missing credentials fail immediately without
// a network call.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mstolarz/relay/config"
	"github.com/mstolarz/relay/pipedream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pdtoken: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	quiet := flag.Bool("quiet", false, "Print the token only, no details on stderr")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	client := pipedream.New(cfg.Pipedream.Credentials())
	token, err := client.FetchToken(ctx)
	if err != nil {
		return err
	}

	fmt.Println(token.AccessToken)
	if !*quiet {
		fmt.Fprint(os.Stderr, details(token.ExpiresAt(), cfg.Pipedream.WorkspaceID))
	}
	return nil
}

// details formats the stderr summary printed after a successful exchange.
func details(expiresAt time.Time, workspaceID string) string {
	s := fmt.Sprintf("Expires at %s (in %s)\n",
		expiresAt.Format(time.RFC3339), time.Until(expiresAt).Round(time.Second))
	if workspaceID != "" {
		s += fmt.Sprintf("Workspace: %s\n", workspaceID)
	}
	return s
}
