package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"hwids/internal/lookup"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func shellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive vendor and device lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r, closeFn, err := openResolver(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "hwids> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			sh := &shell{resolver: r, out: rl.Stdout()}
			sh.printHelp()
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				line, err := rl.Readline()
				if err != nil {
					// EOF or interrupt
					if err == readline.ErrInterrupt {
						continue
					}
					fmt.Fprintln(sh.out, "Exiting...")
					return nil
				}
				if sh.handle(ctx, line) {
					return nil
				}
			}
		},
	}
	addResolverFlags(cmd)
	return cmd
}

// shell interprets console lines against a resolver.
type shell struct {
	resolver lookup.Resolver
	out      io.Writer
}

// handle runs one console line and reports whether the session should end.
func (s *shell) handle(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "vendor", "v":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: vendor <id>")
			return false
		}
		s.print(s.resolver.Vendor(ctx, args[0]))

	case "device", "d":
		if len(args) != 2 {
			fmt.Fprintln(s.out, "usage: device <vendor-id> <device-id>")
			return false
		}
		s.print(s.resolver.Device(ctx, args[0], args[1]))

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		// A bare "<vendor> [device]" is a lookup.
		if len(parts) <= 2 {
			if len(args) == 0 {
				s.print(s.resolver.Vendor(ctx, parts[0]))
			} else {
				s.print(s.resolver.Device(ctx, parts[0], args[0]))
			}
			return false
		}
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *shell) print(name string, err error) {
	switch {
	case err == nil:
		fmt.Fprintln(s.out, name)
	case errors.Is(err, lookup.ErrNotFound):
		fmt.Fprintln(s.out, "not found")
	default:
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
Lookup Commands:
  vendor <id>             - Vendor name
  device <vendor> <id>    - Device display name
  <vendor> [device]       - Same as above
  help                    - Show this help
  quit                    - Leave the shell`)
}
