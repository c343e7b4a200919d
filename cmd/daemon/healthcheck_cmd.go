package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/stemsplit/internal/platform/httpx"
)

func runHealthcheckCLI(args []string) int {
	return runHealthcheck(args, os.Stdout, os.Stderr)
}

// runHealthcheck probes /readyz (or /healthz with --mode=live) of a running
// site. The exit code suits container HEALTHCHECK directives.
func runHealthcheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", "ready", "probe: ready or live")
	addr := fs.String("addr", "localhost:3000", "site address, host:port or URL")
	timeout := fs.Duration("timeout", 5*time.Second, "probe timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var path string
	switch *mode {
	case "ready":
		path = "/readyz"
	case "live":
		path = "/healthz"
	default:
		fmt.Fprintf(stderr, "unknown mode %q (use ready or live)\n", *mode)
		return 2
	}

	base := strings.TrimRight(*addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		fmt.Fprintf(stderr, "healthcheck: %v\n", err)
		return 1
	}

	resp, err := httpx.NewClient(*timeout).Do(req)
	if err != nil {
		fmt.Fprintf(stderr, "healthcheck failed: %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "healthcheck failed: %s returned %s\n", path, resp.Status)
		return 1
	}
	fmt.Fprintf(stdout, "healthy (%s)\n", *mode)
	return 0
}
