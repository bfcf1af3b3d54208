package handlers

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/hypebeast/go-osc/osc"

	"github.com/oscmix/spatializer/internal/dispatcher"
	osctransport "github.com/oscmix/spatializer/internal/transport/osc"
	"github.com/oscmix/spatializer/pkg/protocol"
)

// Router registers handlers for inbound OSC addresses. It is implemented by
// *osctransport.Server.
type Router interface {
	Handle(address string, h osctransport.HandlerFunc) error
}

// OSCCommands maps inbound OSC addresses to the commands they dispatch.
// Pointer commands come from the panel only.
var OSCCommands = map[string]string{
	protocol.AddressSnap:         CmdSnap,
	protocol.AddressLabelSet:     CmdLabelSet,
	protocol.AddressLayoutSave:   CmdLayoutSave,
	protocol.AddressLayoutLoad:   CmdLayoutLoad,
	protocol.AddressLayoutDelete: CmdLayoutDelete,
	protocol.AddressLayoutList:   CmdLayoutList,
	protocol.AddressSoloToggle:   CmdSoloToggle,
	protocol.AddressSoloClear:    CmdSoloClear,
	protocol.AddressFaderSet:     CmdFaderSet,
}

// BindOSC routes every address in OSCCommands to d, with the message
// arguments as the event's textual arguments. OSC has no reply path, so
// results and failures are only logged.
func BindOSC(r Router, d *dispatcher.Dispatcher, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, addr := range slices.Sorted(maps.Keys(OSCCommands)) {
		address, cmd := addr, OSCCommands[addr]
		if err := r.Handle(address, func(msg *osc.Message) {
			args := osctransport.Args(msg)
			out, err := d.Dispatch(dispatcher.Event{Command: cmd, Args: args})
			if err != nil {
				logger.Warn("OSC command failed", "address", address, "args", args, "error", err)
				return
			}
			if cmd == CmdLayoutList {
				logger.Info("Layouts", "layouts", out)
				return
			}
			logger.Debug("OSC command", "address", address, "result", out)
		}); err != nil {
			return fmt.Errorf("binding %s: %w", address, err)
		}
	}
	return nil
}
