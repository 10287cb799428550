package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"signalshub/internal/client"
	"signalshub/internal/output"
)

type Context struct {
	Ctx     context.Context
	APIBase string
	Token   string
	Output  output.Format
	Stdout  io.Writer
	Stdin   io.Reader

	// NewKey mints idempotency keys when none is given.
	NewKey func() string
	HTTP   *client.Client
}

func (c Context) client() *client.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &client.Client{BaseURL: c.APIBase, Token: c.Token}
}

func (c Context) context() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

func (c Context) write(v any) error {
	w := c.Stdout
	if w == nil {
		w = os.Stdout
	}
	return output.Write(w, c.Output, v)
}

func Usage(w io.Writer) {
	fmt.Fprint(w, `signalsctl <command> <subcommand> [flags]

Global Flags:
  --api-base    API base URL including route prefix (env: SH_API_BASE)
  --token       Bearer token (env: SH_TOKEN)
  --output      json|text (default json)

Commands:
  signals        list/get/create
  purchase       buy/list/check
  rate           quick/final
  analyst        get/list/signals/rebuild
  notifications  list/read
  follow         add/remove/list
  sweep          run the expiry sweep now
`)
}

func Dispatch(ctx Context, args []string) error {
	if len(args) == 0 {
		Usage(os.Stderr)
		return errors.New("missing command")
	}
	switch args[0] {
	case "signals", "signal":
		return signalsCmd(ctx, args[1:])
	case "purchase", "purchases":
		return purchaseCmd(ctx, args[1:])
	case "rate":
		return rateCmd(ctx, args[1:])
	case "analyst", "analysts":
		return analystCmd(ctx, args[1:])
	case "notifications", "notify":
		return notificationsCmd(ctx, args[1:])
	case "follow", "follows":
		return followCmd(ctx, args[1:])
	case "sweep":
		return sweepCmd(ctx)
	case "help", "-h", "--help":
		if ctx.Stdout != nil {
			Usage(ctx.Stdout)
		} else {
			Usage(os.Stdout)
		}
		return nil
	default:
		Usage(os.Stderr)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (c Context) get(path string) error {
	resp, err := c.client().Get(c.context(), path)
	if err != nil {
		return err
	}
	return c.write(resp)
}

func (c Context) post(path string, body any, headers map[string]string) error {
	resp, err := c.client().Post(c.context(), path, body, headers)
	if err != nil {
		return err
	}
	return c.write(resp)
}
