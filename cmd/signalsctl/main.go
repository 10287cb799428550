package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"signalshub/internal/cli"
	"signalshub/internal/config"
	"signalshub/internal/output"
)

func main() {
	_ = config.LoadDotEnv()

	var (
		apiBase = flag.String("api-base", "", "API base URL including route prefix (env: SH_API_BASE)")
		token   = flag.String("token", "", "Bearer token (env: SH_TOKEN)")
		outFmt  = flag.String("output", "json", "Output format: json|text")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.Usage(os.Stderr)
		os.Exit(2)
	}

	base := strings.TrimSpace(*apiBase)
	if base == "" {
		base = strings.TrimSpace(os.Getenv("SH_API_BASE"))
	}
	if base == "" {
		base = "http://localhost:8080/make-server-45dfd248"
	}

	// Token resolution order: flag --token, then env SH_TOKEN.
	tok := strings.TrimSpace(*token)
	if tok == "" {
		tok = strings.TrimSpace(os.Getenv("SH_TOKEN"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cli.Context{
		Ctx:     ctx,
		APIBase: strings.TrimRight(base, "/"),
		Token:   tok,
		Output:  output.Format(strings.TrimSpace(*outFmt)),
		Stdout:  os.Stdout,
		Stdin:   os.Stdin,
	}
	if err := cli.Dispatch(c, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(1)
	}
}
