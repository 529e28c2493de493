package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/deep-sre-agent/go-toolclient/src/json"
	"github.com/deep-sre-agent/go-toolclient/src/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools <service>",
	Short: "List the tools a service exposes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(args[0])
		if err != nil {
			return err
		}
		list := c.Tools(cmd.Context())
		if len(list) == 0 {
			return fmt.Errorf("no tools discovered for %s", args[0])
		}
		printTools(cmd.OutOrStdout(), list)
		return nil
	},
}

var (
	callArgs string
	callSet  []string
	callRaw  bool
)

var callCmd = &cobra.Command{
	Use:   "call <service> <tool>",
	Short: "Call one tool and print the normalized result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(args[0])
		if err != nil {
			return err
		}
		toolArgs, err := buildArgs(callArgs, callSet)
		if err != nil {
			return err
		}
		if callRaw {
			out, err := c.Call(cmd.Context(), args[1], toolArgs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Invoke(cmd.Context(), args[1], []string{args[1]}, toolArgs))
		return nil
	},
}

func init() {
	callCmd.Flags().StringVar(&callArgs, "args", "", `tool arguments as a JSON object, e.g. '{"query":"up"}'`)
	callCmd.Flags().StringArrayVar(&callSet, "set", nil, "set one argument as key=value (repeatable, applied after --args)")
	callCmd.Flags().BoolVar(&callRaw, "raw", false, "skip discovery and argument filtering")
}

// buildArgs merges a JSON object with key=value pairs. Values given with
// --set become numbers or booleans when they parse as such.
func buildArgs(raw string, pairs []string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("invalid --args: %w", err)
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", p)
		}
		args[key] = coerce(value)
	}
	return args, nil
}

func coerce(s string) any {
	if i, err := cast.ToInt64E(s); err == nil && cast.ToString(i) == s {
		return i
	}
	if f, err := cast.ToFloat64E(s); err == nil {
		return f
	}
	if b, err := cast.ToBoolE(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	return s
}

func printTools(w io.Writer, list []tools.Tool) {
	for _, t := range list {
		line := t.Name
		if props := t.PropertyNames(); len(props) > 0 {
			req := map[string]bool{}
			for _, r := range t.Inputs.Required {
				req[r] = true
			}
			for i, p := range props {
				if req[p] {
					props[i] = p + "*"
				}
			}
			line += "(" + strings.Join(props, ", ") + ")"
		}
		fmt.Fprintln(w, line)
		if t.Description != "" {
			fmt.Fprintln(w, "    "+t.Description)
		}
	}
}
