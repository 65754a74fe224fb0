// Command signctl mints administrator tokens for the PDF signing server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-pdf-signer/internal/auth"
)

const secretEnv = "PDF_SIGN_ADMIN_SECRET"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

// run executes the command and returns the process exit code
func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	flags := pflag.NewFlagSet("signctl", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	secret := flags.String("secret", "", "HMAC secret shared with the server (default $"+secretEnv+")")
	subject := flags.String("subject", "", "Administrator identity stored as the token subject")
	ttl := flags.Duration("ttl", auth.DefaultTTL, "Token lifetime")
	format := flags.String("format", "text", "Output format: text, json")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: signctl --subject <admin> [options]\n\n")
		fmt.Fprintf(stderr, "Mints a signed administrator token for the PDF signing tools.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		// ContinueOnError leaves reporting to the caller
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		flags.Usage()
		return 2
	}

	if *secret == "" {
		*secret = getenv(secretEnv)
	}
	if *subject == "" {
		fmt.Fprintf(stderr, "Error: --subject is required\n\n")
		flags.Usage()
		return 2
	}
	if *ttl <= 0 {
		fmt.Fprintf(stderr, "Error: --ttl must be positive\n")
		return 2
	}

	now := time.Now()
	token, err := auth.NewGate(*secret).Mint(*subject, *ttl, now)
	if err != nil {
		fmt.Fprintf(stderr, "Error minting token: %v\n", err)
		return 1
	}

	switch *format {
	case "json":
		out := struct {
			Token     string    `json:"token"`
			Subject   string    `json:"subject"`
			ExpiresAt time.Time `json:"expires_at"`
		}{
			Token:     token,
			Subject:   *subject,
			ExpiresAt: now.Add(*ttl).UTC(),
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "Error writing output: %v\n", err)
			return 1
		}
	case "text":
		fmt.Fprintln(stdout, token)
	default:
		fmt.Fprintf(stderr, "Error: unsupported format: %s\n", *format)
		return 2
	}
	return 0
}
