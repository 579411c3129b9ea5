package workers

import (
	"context"
	"log/slog"
	"sharecircle/contract"
	"sharecircle/domain/chat"
)

// RelayWorker drains the relay queue and executes one command at a time.
// Being the only consumer, it gives the relay its arrival order.
type RelayWorker struct {
	log      *slog.Logger
	commands <-chan chat.Command
	handler  contract.CommandHandler
}

func NewRelayWorker(log *slog.Logger, commands <-chan chat.Command, handler contract.CommandHandler) *RelayWorker {
	return &RelayWorker{log: log, commands: commands, handler: handler}
}

func (w *RelayWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping relay worker")
			return nil
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Command channel is closed")
				return nil
			}
			if err := w.handler.Handle(ctx, cmd); err != nil {
				w.log.Debug("Command skipped", "connection_id", cmd.ConnectionID(), "error", err)
			}
		}
	}
}
