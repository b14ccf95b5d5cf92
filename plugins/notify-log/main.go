// Command notify-log is the reference notifier plugin. It appends every
// event it receives as one JSON line to $POMOTRACK_NOTIFY_LOG, or to stderr
// when the variable is unset.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"pomotrack/internal/modules/notify/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

const logEnv = "POMOTRACK_NOTIFY_LOG"

type line struct {
	ReceivedAt string            `json:"received_at"`
	Request    rpc.NotifyRequest `json:"request"`
}

type server struct {
	mu sync.Mutex
}

func (s *server) GetMetadata(_ context.Context, _ *rpc.Empty) (*rpc.Metadata, error) {
	return &rpc.Metadata{
		Name:    "notify-log",
		Version: "1.0.0",
		Events:  []string{"timer.completed", "session.recorded"},
	}, nil
}

func (s *server) Notify(_ context.Context, in *rpc.NotifyRequest) (*rpc.NotifyResponse, error) {
	payload, err := json.Marshal(line{ReceivedAt: time.Now().UTC().Format(time.RFC3339), Request: *in})
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out, closeFn, err := openSink()
	if err != nil {
		return &rpc.NotifyResponse{Accepted: false, Message: err.Error()}, nil
	}
	defer closeFn()
	if _, err := out.Write(append(payload, '\n')); err != nil {
		return &rpc.NotifyResponse{Accepted: false, Message: err.Error()}, nil
	}
	return &rpc.NotifyResponse{Accepted: true}, nil
}

func openSink() (io.Writer, func(), error) {
	path := os.Getenv(logEnv)
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: rpc.HandshakeConfig,
		Plugins:         rpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
