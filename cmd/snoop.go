package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/nats"
)

var (
	leafStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// CreateSnoopCmd creates the snoop command.
func CreateSnoopCmd() *cobra.Command {
	var natsURL, node string
	var raw bool

	cmd := &cobra.Command{
		Use:   "snoop",
		Short: "Print state, discovery and commands seen on NATS",
		Long:  `Subscribes to lightnode.<node>.> and prints every message until interrupted. Use --node '*' to watch all nodes.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			client := nats.NewClient(natsURL, "lightnode-snoop", logging.GetLogger("nats"))
			if err := client.Connect(5 * time.Second); err != nil {
				return err
			}
			defer client.Close()

			var count, size atomic.Uint64
			stop, err := client.Snoop(node, func(o nats.Observation) {
				count.Add(1)
				size.Add(uint64(len(o.Data)))
				line := formatObservation(o, raw)
				if o.Leaf == nats.LeafRejected {
					line = errorStyle.Render(line)
				}
				fmt.Fprintln(os.Stdout, line)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Listening on lightnode.%s.> at %s\n", node, natsURL)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			_ = stop()
			fmt.Fprintf(os.Stderr, "\n%s messages, %s\n", humanize.Comma(int64(count.Load())), humanize.Bytes(size.Load()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&natsURL, "nats-url", "u", "nats://127.0.0.1:4222", "NATS server URL")
	cmd.Flags().StringVarP(&node, "node", "n", nats.AllNodes, "Node to watch")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print payloads unmodified")
	return cmd
}

// formatObservation renders one message as a single line. Known payloads
// are summarized unless raw is set.
func formatObservation(o nats.Observation, raw bool) string {
	prefix := fmt.Sprintf("%s %-10s %-12s", o.Received.Format("15:04:05.000"), o.Node, leafStyle.Render(o.Leaf))
	if raw {
		return fmt.Sprintf("%s %s (%s)", prefix, o.Data, humanize.Bytes(uint64(len(o.Data))))
	}
	return prefix + " " + summarize(o)
}

func summarize(o nats.Observation) string {
	switch o.Leaf {
	case nats.LeafState:
		m, err := nats.UnmarshalState(o.Data)
		if err != nil {
			return "malformed state: " + err.Error()
		}
		return fmt.Sprintf("%s brightness=%d%% level=%d effect=%q color=%s", m.State, m.Brightness, m.Level, m.Effect, m.Color)

	case nats.LeafDiscovery:
		m, ok, err := nats.UnmarshalDiscovery(o.Data)
		if err != nil {
			return "malformed discovery: " + err.Error()
		}
		if !ok {
			return "offline"
		}
		return fmt.Sprintf("online version=%s channels=%d leds=%s effects=[%s] announced %s",
			m.Version, m.Channels, humanize.Comma(int64(m.LEDs)), strings.Join(m.Effects, ", "), since(m.Timestamp, o.Received))

	case nats.LeafRejected:
		m, err := nats.UnmarshalRejected(o.Data)
		if err != nil {
			return "malformed rejection: " + err.Error()
		}
		return fmt.Sprintf("rejected %q on %s: %s", m.Payload, m.Subject, m.Error)
	}

	return fmt.Sprintf("%q (%s)", o.Data, humanize.Bytes(uint64(len(o.Data))))
}

func since(ts string, now time.Time) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return "at " + ts
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
