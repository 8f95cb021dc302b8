package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	notifyrpc "medtrack/internal/modules/notify/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

const (
	name    = "desktop"
	version = "1.0.0"
)

type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *notifyrpc.Empty) (*notifyrpc.Metadata, error) {
	channel := "log"
	if _, err := exec.LookPath("notify-send"); err == nil {
		channel = "notify-send"
	}
	return &notifyrpc.Metadata{Name: name, Version: version, Channel: channel}, nil
}

// Deliver prefers notify-send; the synchronous hint makes the desktop replace
// a popup carrying the same tag. Without it the notification is appended to
// the vault log.
func (s *server) Deliver(ctx context.Context, in *notifyrpc.DeliverRequest) (*notifyrpc.DeliverResponse, error) {
	if path, err := exec.LookPath("notify-send"); err == nil {
		cmd := exec.CommandContext(ctx, path,
			"--app-name=medtrack",
			"--hint=string:x-canonical-private-synchronous:"+in.Tag,
			in.Title, in.Body)
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("notify-send: %v: %s", err, out)
		}
		return &notifyrpc.DeliverResponse{Channel: "notify-send"}, nil
	}
	if err := appendLog(in); err != nil {
		return nil, err
	}
	return &notifyrpc.DeliverResponse{Channel: "log"}, nil
}

func appendLog(in *notifyrpc.DeliverRequest) error {
	dir := os.TempDir()
	if in.VaultPath != "" {
		dir = filepath.Join(in.VaultPath, ".medtrack")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open notification log: %w", err)
	}
	defer f.Close()
	at := time.Unix(in.CreatedUnix, 0).Format(time.RFC3339)
	if _, err := fmt.Fprintf(f, "%s\t%s\t%s\t%s\n", at, in.Tag, in.Title, in.Body); err != nil {
		return fmt.Errorf("write notification log: %w", err)
	}
	return nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: notifyrpc.HandshakeConfig,
		Plugins:         notifyrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
