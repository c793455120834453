// Package player defines the allowlisted playback commands and the channel
// through which the page observer asks for them to be run.
package player

import (
	"context"
	"fmt"
)

type Command string

const (
	Mute      Command = "mute"
	UnMute    Command = "unMute"
	PlayVideo Command = "playVideo"
)

var allowed = map[Command]bool{
	Mute:      true,
	UnMute:    true,
	PlayVideo: true,
}

// ParseCommand validates a command name received from outside the process.
func ParseCommand(name string) (Command, error) {
	c := Command(name)
	if !allowed[c] {
		return "", fmt.Errorf("unsupported player command %q", name)
	}
	return c, nil
}

// Channel asks for a command to be executed against the page's player. It
// reports whether the player control was found and invoked. Failures are
// not errors: the caller carries on either way.
type Channel interface {
	Send(ctx context.Context, cmd Command) bool
}

// Executor runs a command inside the page's own context for a tab.
type Executor interface {
	Execute(ctx context.Context, tabID string, cmd Command) (bool, error)
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc func(ctx context.Context, cmd Command) bool

func (f ChannelFunc) Send(ctx context.Context, cmd Command) bool { return f(ctx, cmd) }
