// Package nats carries lightnode commands and state over NATS.
//
// # Architecture
//
//   - Server: optional embedded NATS server (nats.embedded = true)
//   - Bridge: runs inside a node; turns inbound payloads into display
//     commands and publishes state snapshots and discovery
//   - Client: used by the send and snoop subcommands
//
// # Subject Hierarchy
//
//	lightnode.{node}.command      # on | off | toggle | mode
//	lightnode.{node}.brightness   # 0-100
//	lightnode.{node}.effect       # effect name
//	lightnode.{node}.color        # #rrggbb | r,g,b
//	lightnode.{node}.dimmer       # on-press, up-hold, ...
//	lightnode.{node}.json         # {"state":"ON","brightness":70,...}
//	lightnode.{node}.state        # StateMessage (node → clients)
//	lightnode.{node}.discovery    # DiscoveryMessage, empty on shutdown
//	lightnode.{node}.rejected     # RejectedMessage for refused payloads
//
// Inbound payloads may be plain publishes or requests. Requests get a Reply
// with the decoded commands or the rejection reason.
//
// # Debugging with nats CLI
//
// Watch everything a node publishes:
//
//	nats sub "lightnode.bedroom.>"
//
// Turn the strip on and pick an effect:
//
//	nats pub lightnode.bedroom.command on
//	nats req lightnode.bedroom.effect sparkle
//
// Send a JSON light command:
//
//	nats pub lightnode.bedroom.json '{"state":"ON","brightness":40,"color":"#ff8800"}'
//
// # Message Formats
//
// StateMessage (lightnode.{node}.state):
//
//	{
//	  "node": "bedroom",
//	  "timestamp": "2024-01-01T12:00:00Z",
//	  "state": "ON",
//	  "brightness": 70,
//	  "level": 70,
//	  "effect": "sparkle",
//	  "color": "#ff0000"
//	}
//
// Brightness is 0 while the strip is off; level keeps the value restored by
// the next power on.
package nats
