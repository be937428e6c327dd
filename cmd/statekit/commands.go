package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/record"
	"github.com/tailored-agentic-units/statekit/server"
)

// messages collects repeated -message flags as human messages.
type messages []protocol.Message

func (m *messages) String() string {
	parts := make([]string, len(*m))
	for i, msg := range *m {
		parts[i] = msg.Content
	}
	return strings.Join(parts, ", ")
}

func (m *messages) Set(v string) error {
	*m = append(*m, protocol.Human(v))
	return nil
}

// recordFlags describe the input record of run and call.
type recordFlags struct {
	workflow string
	count    int
	messages messages
}

func (r *recordFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.workflow, "workflow", "basic", "Workflow to invoke: basic or complex")
	fs.IntVar(&r.count, "count", 0, "Initial count")
	fs.Var(&r.messages, "message", "Human message for the complex workflow (repeatable)")
}

func (r *recordFlags) validate() error {
	switch r.workflow {
	case "basic":
		if len(r.messages) > 0 {
			return fmt.Errorf("-message only applies to the complex workflow")
		}
	case "complex":
	default:
		return fmt.Errorf("unknown workflow %q (want basic or complex)", r.workflow)
	}
	return nil
}

func writeJSON(env environment, v any) error {
	enc := json.NewEncoder(env.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCommand(ctx context.Context, env environment, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(env.stderr)

	var c common
	var in recordFlags
	c.register(fs)
	in.register(fs)
	times := fs.Int("times", 1, "Number of successive invocations, each on the previous output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := in.validate(); err != nil {
		return err
	}

	rt, _, err := c.runtime(env)
	if err != nil {
		return err
	}

	if in.workflow == "basic" {
		out, err := rt.RepeatBasic(ctx, record.Basic{Count: in.count}, *times)
		if err != nil {
			return err
		}
		return writeJSON(env, out)
	}

	out, err := rt.RepeatComplex(ctx, record.NewComplex(in.count, in.messages...), *times)
	if err != nil {
		return err
	}
	return writeJSON(env, out)
}

func batchCommand(ctx context.Context, env environment, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(env.stderr)

	var c common
	c.register(fs)
	workflow := fs.String("workflow", "basic", "Workflow to invoke: basic or complex")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, _, err := c.runtime(env)
	if err != nil {
		return err
	}

	switch *workflow {
	case "basic":
		records, err := readRecords[record.Basic](env)
		if err != nil {
			return err
		}
		res, err := rt.BatchBasic(ctx, records)
		return writeBatch(env, res.Results, err)
	case "complex":
		records, err := readRecords[record.Complex](env)
		if err != nil {
			return err
		}
		res, err := rt.BatchComplex(ctx, records)
		return writeBatch(env, res.Results, err)
	default:
		return fmt.Errorf("unknown workflow %q (want basic or complex)", *workflow)
	}
}

// readRecords decodes one JSON record per non-blank stdin line, with the
// same strict rules the server applies.
func readRecords[R any](env environment) ([]R, error) {
	var records []R

	scanner := bufio.NewScanner(env.stdin)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		r, err := record.Decode[R]([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// writeBatch prints one compact JSON result per line, then reports err.
func writeBatch[R any](env environment, results []R, err error) error {
	enc := json.NewEncoder(env.stdout)
	for _, r := range results {
		if encErr := enc.Encode(r); encErr != nil {
			return encErr
		}
	}
	return err
}

func chatCommand(ctx context.Context, env environment, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(env.stderr)

	var c common
	c.register(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, _, err := c.runtime(env)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.stdout, "session %s (/reset clears history, /exit quits)\n", rt.Session().ID())

	scanner := bufio.NewScanner(env.stdin)
	for {
		fmt.Fprint(env.stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(env.stdout)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/exit":
			return nil
		case "/reset":
			rt.Session().Clear()
			fmt.Fprintln(env.stdout, "history cleared")
			continue
		}

		reply, err := rt.Chat(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintln(env.stdout, reply)
	}
}

func serveCommand(ctx context.Context, env environment, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(env.stderr)

	var c common
	c.register(fs)
	addr := fs.String("addr", "", "Listen address (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, cfg, err := c.runtime(env)
	if err != nil {
		return err
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	srv, err := server.New(cfg.Server, rt, rt.Observer())
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func callCommand(ctx context.Context, env environment, args []string) error {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.SetOutput(env.stderr)

	var c common
	var in recordFlags
	c.register(fs)
	in.register(fs)
	url := fs.String("url", "", "Server base URL (default http://<server.addr> from config)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := in.validate(); err != nil {
		return err
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}

	base := *url
	if base == "" {
		base = "http://" + cfg.Server.Addr
	}
	client := server.NewClient(http.DefaultClient, base)

	if in.workflow == "basic" {
		out, err := client.RunBasic(ctx, record.Basic{Count: in.count})
		if err != nil {
			return err
		}
		return writeJSON(env, out)
	}

	out, err := client.RunComplex(ctx, record.NewComplex(in.count, in.messages...))
	if err != nil {
		return err
	}
	return writeJSON(env, out)
}
