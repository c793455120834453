// Package broker answers messages from page observers that need a
// privileged capability: fetching a remote blocklist or driving the page's
// own player control.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/videogate/videogate/internal/blocklist"
	"github.com/videogate/videogate/internal/player"
	"github.com/videogate/videogate/internal/remote"
)

const (
	TypeFetchRemoteBlocklist = "fetch-remote-blocklist"
	TypeSendCommand          = "send-command-to-movie-player"
)

var ErrUnknownMessage = errors.New("no suitable message handler found")

// Sender identifies where a message came from.
type Sender struct {
	TabID string
}

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type fetchPayload struct {
	Remote *blocklist.RemoteConfig `json:"remote"`
}

type commandPayload struct {
	Command string `json:"command"`
}

type RemoteFetcher interface {
	Result(ctx context.Context, rc blocklist.RemoteConfig) remote.Result
}

type Broker struct {
	fetcher  RemoteFetcher
	executor player.Executor
}

func New(fetcher RemoteFetcher, executor player.Executor) *Broker {
	return &Broker{fetcher: fetcher, executor: executor}
}

// Handle dispatches one message. The reply is a remote.Result for fetch
// requests and a bool for player commands.
func (b *Broker) Handle(ctx context.Context, sender Sender, msg Message) (any, error) {
	switch msg.Type {
	case TypeFetchRemoteBlocklist:
		var p fetchPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		if p.Remote == nil {
			return remote.Result{Error: remote.ErrNotConfigured.Error()}, nil
		}
		return b.fetcher.Result(ctx, *p.Remote), nil

	case TypeSendCommand:
		var p commandPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		return b.sendCommand(ctx, sender, p.Command), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}

func (b *Broker) sendCommand(ctx context.Context, sender Sender, name string) bool {
	cmd, err := player.ParseCommand(name)
	if err != nil {
		return false
	}
	if sender.TabID == "" || b.executor == nil {
		return false
	}
	ok, err := b.executor.Execute(ctx, sender.TabID, cmd)
	if err != nil {
		slog.Debug("broker: player command failed", "tab", sender.TabID, "command", name, "error", err)
		return false
	}
	return ok
}

// CommandChannel returns a player.Channel whose commands go through the
// same path as messages sent by tabID.
func (b *Broker) CommandChannel(tabID string) player.Channel {
	return player.ChannelFunc(func(ctx context.Context, cmd player.Command) bool {
		payload, err := json.Marshal(commandPayload{Command: string(cmd)})
		if err != nil {
			return false
		}
		reply, err := b.Handle(ctx, Sender{TabID: tabID}, Message{Type: TypeSendCommand, Payload: payload})
		if err != nil {
			return false
		}
		ok, _ := reply.(bool)
		return ok
	})
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
