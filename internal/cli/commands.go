package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("signalsctl "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parseFid(raw string) (int64, error) {
	fid, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || fid <= 0 {
		return 0, fmt.Errorf("invalid fid %q", raw)
	}
	return fid, nil
}

func fidArg(args []string, usage string) (int64, error) {
	if len(args) < 1 {
		return 0, errors.New("usage: " + usage)
	}
	return parseFid(args[0])
}

func (c Context) idempotencyKey(given string) string {
	if k := strings.TrimSpace(given); k != "" {
		return k
	}
	if c.NewKey != nil {
		return c.NewKey()
	}
	return uuid.NewString()
}

func signalsCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("signals subcommand required: list|get|create")
	}
	switch args[0] {
	case "list":
		fs := newFlagSet("signals list")
		analyst := fs.Int64("analyst", 0, "only signals of this analyst fid")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *analyst > 0 {
			return ctx.get(fmt.Sprintf("/analyst/%d/signals", *analyst))
		}
		return ctx.get("/signals")

	case "get":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return errors.New("usage: signalsctl signals get <id>")
		}
		return ctx.get("/signals/" + url.PathEscape(strings.TrimSpace(args[1])))

	case "create":
		fs := newFlagSet("signals create")
		file := fs.String("file", "-", "signal JSON file, - for stdin")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		var r io.Reader = ctx.Stdin
		if *file != "-" {
			f, err := os.Open(*file)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		if r == nil {
			r = os.Stdin
		}
		var sig map[string]any
		if err := json.NewDecoder(r).Decode(&sig); err != nil {
			return fmt.Errorf("decode signal: %w", err)
		}
		return ctx.post("/signals", map[string]any{"signal": sig}, nil)

	default:
		return fmt.Errorf("unknown signals subcommand: %s", args[0])
	}
}

func purchaseCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("purchase subcommand required: buy|list|check")
	}
	switch args[0] {
	case "buy":
		fs := newFlagSet("purchase buy")
		signalID := fs.String("signal", "", "signal id")
		buyer := fs.Int64("buyer", 0, "buyer fid")
		amount := fs.String("amount", "", "amount in ETH")
		tx := fs.String("tx", "", "transaction hash")
		key := fs.String("idempotency-key", "", "replay key (generated when empty)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if strings.TrimSpace(*signalID) == "" {
			return errors.New("--signal required")
		}
		if *buyer <= 0 {
			return errors.New("--buyer required")
		}
		amt, err := decimal.NewFromString(strings.TrimSpace(*amount))
		if err != nil || !amt.IsPositive() {
			return fmt.Errorf("--amount must be a positive number, got %q", *amount)
		}
		body := map[string]any{
			"signalId":        strings.TrimSpace(*signalID),
			"buyerFid":        *buyer,
			"amount":          amt.String(),
			"transactionHash": strings.TrimSpace(*tx),
		}
		return ctx.post("/purchase", body, map[string]string{"Idempotency-Key": ctx.idempotencyKey(*key)})

	case "list":
		fid, err := fidArg(args[1:], "signalsctl purchase list <buyerFid>")
		if err != nil {
			return err
		}
		return ctx.get(fmt.Sprintf("/purchases/%d", fid))

	case "check":
		if len(args) < 3 {
			return errors.New("usage: signalsctl purchase check <buyerFid> <signalId>")
		}
		fid, err := parseFid(args[1])
		if err != nil {
			return err
		}
		return ctx.get(fmt.Sprintf("/check-purchase/%d/%s", fid, url.PathEscape(strings.TrimSpace(args[2]))))

	default:
		return fmt.Errorf("unknown purchase subcommand: %s", args[0])
	}
}

func rateCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("rate subcommand required: quick|final")
	}
	fs := newFlagSet("rate " + args[0])
	purchaseID := fs.String("purchase", "", "purchase id")
	key := fs.String("idempotency-key", "", "replay key (generated when empty)")
	switch args[0] {
	case "quick":
		stars := fs.Int("stars", 0, "rating 1-5")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if strings.TrimSpace(*purchaseID) == "" {
			return errors.New("--purchase required")
		}
		if *stars < 1 || *stars > 5 {
			return errors.New("--stars must be between 1 and 5")
		}
		body := map[string]any{"purchaseId": strings.TrimSpace(*purchaseID), "rating": *stars}
		return ctx.post("/rate-quick", body, map[string]string{"Idempotency-Key": ctx.idempotencyKey(*key)})

	case "final":
		verdict := fs.String("verdict", "", "success|loss")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if strings.TrimSpace(*purchaseID) == "" {
			return errors.New("--purchase required")
		}
		v := strings.ToLower(strings.TrimSpace(*verdict))
		if v != "success" && v != "loss" {
			return errors.New("--verdict must be success or loss")
		}
		body := map[string]any{"purchaseId": strings.TrimSpace(*purchaseID), "rating": v}
		return ctx.post("/rate-final", body, map[string]string{"Idempotency-Key": ctx.idempotencyKey(*key)})

	default:
		return fmt.Errorf("unknown rate subcommand: %s", args[0])
	}
}

func analystCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("analyst subcommand required: get|list|signals|rebuild")
	}
	switch args[0] {
	case "list":
		return ctx.get("/analysts")
	case "get":
		fid, err := fidArg(args[1:], "signalsctl analyst get <fid>")
		if err != nil {
			return err
		}
		return ctx.get(fmt.Sprintf("/analyst/%d", fid))
	case "signals":
		fid, err := fidArg(args[1:], "signalsctl analyst signals <fid>")
		if err != nil {
			return err
		}
		return ctx.get(fmt.Sprintf("/analyst/%d/signals", fid))
	case "rebuild":
		fid, err := fidArg(args[1:], "signalsctl analyst rebuild <fid>")
		if err != nil {
			return err
		}
		return ctx.post(fmt.Sprintf("/analyst/%d/rebuild", fid), map[string]any{}, nil)
	default:
		return fmt.Errorf("unknown analyst subcommand: %s", args[0])
	}
}

func notificationsCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("notifications subcommand required: list|read")
	}
	switch args[0] {
	case "list":
		fid, err := fidArg(args[1:], "signalsctl notifications list <fid>")
		if err != nil {
			return err
		}
		return ctx.get(fmt.Sprintf("/notifications/%d", fid))
	case "read":
		fid, err := fidArg(args[1:], "signalsctl notifications read <fid> [--ids a,b]")
		if err != nil {
			return err
		}
		fs := newFlagSet("notifications read")
		ids := fs.String("ids", "", "comma separated ids; empty marks all")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		body := map[string]any{"ids": splitList(*ids)}
		return ctx.post(fmt.Sprintf("/notifications/%d/read", fid), body, nil)
	default:
		return fmt.Errorf("unknown notifications subcommand: %s", args[0])
	}
}

func followCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("follow subcommand required: add|remove|list")
	}
	switch args[0] {
	case "add", "remove":
		fs := newFlagSet("follow " + args[0])
		user := fs.Int64("user", 0, "follower fid")
		analyst := fs.Int64("analyst", 0, "analyst fid")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *user <= 0 || *analyst <= 0 {
			return errors.New("--user and --analyst required")
		}
		path := "/follow"
		if args[0] == "remove" {
			path = "/unfollow"
		}
		return ctx.post(path, map[string]any{"userFid": *user, "analystFid": *analyst}, nil)
	case "list":
		fid, err := fidArg(args[1:], "signalsctl follow list <fid>")
		if err != nil {
			return err
		}
		return ctx.get(fmt.Sprintf("/follows/%d", fid))
	default:
		return fmt.Errorf("unknown follow subcommand: %s", args[0])
	}
}

func sweepCmd(ctx Context) error {
	return ctx.get("/check-expired-signals")
}

func splitList(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
