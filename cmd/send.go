package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/command"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/nats"
)

// CreateSendCmd creates the send command.
func CreateSendCmd() *cobra.Command {
	var natsURL, node string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "send <topic> <payload>",
		Short: "Send a command to a node over NATS",
		Long: `Publishes payload on lightnode.<node>.<topic> and waits for the node's reply.

Topics: command (on, off, toggle, mode), brightness (0-100), effect (name),
color (#rrggbb or r,g,b), dimmer (on-press, off-hold, ...) and json
({"state":"ON","brightness":70}).`,
		Example: `  lightnode send command on --node bedroom
  lightnode send color '#ff8800' --node bedroom
  lightnode send json '{"state":"ON","effect":"sparkle"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			topic, err := parseTopic(args[0])
			if err != nil {
				return err
			}
			payload := []byte(args[1])
			if err := validatePayload(topic, payload); err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			}

			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			client := nats.NewClient(natsURL, "lightnode-send", logging.GetLogger("nats"))
			if err := client.Connect(timeout); err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()
			reply, err := client.Send(ctx, node, topic, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s accepted: %s\n", node, strings.Join(reply.Commands, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&natsURL, "nats-url", "u", "nats://127.0.0.1:4222", "NATS server URL")
	cmd.Flags().StringVarP(&node, "node", "n", "lightnode", "Target node name")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Second, "Time to wait for the node's reply")
	return cmd
}

func parseTopic(s string) (command.Topic, error) {
	topic := command.Topic(strings.ToLower(s))
	if !slices.Contains(nats.InboundTopics, topic) {
		return "", fmt.Errorf("unknown topic %q", s)
	}
	return topic, nil
}

// validatePayload parses payload locally so typos fail before anything is
// published. Effect names are checked by the node.
func validatePayload(topic command.Topic, payload []byte) error {
	if topic == command.TopicJSON {
		_, err := command.ParseJSON(payload)
		return err
	}
	_, err := command.ParseTopic(topic, payload)
	return err
}
