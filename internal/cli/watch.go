package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thomvis/Construct-sub002/internal/store"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Count int
	Poll  time.Duration
}

type watchEvent struct {
	Key     string      `json:"key"`
	Present bool        `json:"present"`
	Record  *recordView `json:"record,omitempty"`
}

func (e watchEvent) String() string {
	if e.Record == nil {
		return e.Key + "\t<absent>"
	}
	return e.Record.String()
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <key>",
		Short: "Print the record under a key now and after every change",
		Long: `Print the record under a key now and after every committed change, until
interrupted. Writes that leave the record unchanged print nothing.

Changes made by other processes are picked up by checking the database every
--poll interval.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, opts.run, store.WithChangePolling(opts.Poll))(cmd, args)
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 0, "exit after this many emissions (0 = run until interrupted)")
	cmd.Flags().DurationVar(&opts.Poll, "poll", 250*time.Millisecond, "how often to check for changes made by other processes")

	return cmd
}

func (opts *WatchOptions) run(cmd *cobra.Command, s *session, args []string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := s.store.Observe(ctx, args[0])
	defer sub.Cancel()

	emitted := 0
	for snap := range sub.C {
		if snap.Err != nil {
			return snap.Err
		}
		ev := watchEvent{Key: args[0]}
		if len(snap.Records) > 0 {
			v := viewOf(snap.Records[0])
			ev.Present = true
			ev.Record = &v
		}
		if err := s.out.Success(ev); err != nil {
			return err
		}
		emitted++
		if opts.Count > 0 && emitted >= opts.Count {
			return nil
		}
	}
	s.logger.Debug("watch ended", "key", args[0])
	return nil
}
