package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
)

const devProject = `
browsers: "last 2 versions"
entries:
  start:
    entry: ./src/index.js
  admin:
    entry: ./src/admin.js
dev_server:
  port: 3000
`

func waitServed(t *testing.T, inv *fakeInvoker) {
	t.Helper()
	select {
	case <-inv.servedC:
	case <-time.After(5 * time.Second):
		t.Fatal("dev server was not started")
	}
}

func runAsync(h *harness, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx, h.rc) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
		return nil
	}
}

func TestDevServerServesStartEntry(t *testing.T) {
	h := newHarness(t, "wds", projectConfig(t, devProject))
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(h, ctx)

	waitServed(t, h.inv)
	cancel()
	require.NoError(t, waitDone(t, done))

	served := h.inv.Served()
	require.Len(t, served, 1)
	call := served[0]
	require.Equal(t, "start", call.cfg.Name)
	require.Equal(t, "start-[hash].js", call.cfg.Output.Filename)
	require.Len(t, call.cfg.Plugins, 2)
	require.Equal(t, bundle.PluginHTML, call.cfg.Plugins[0].Kind)
	require.True(t, call.cfg.Plugins[0].Bool("devServer"))
	require.Equal(t, 3000, call.opts.Port)
	require.Equal(t, "localhost", call.opts.Host)
	require.NotEmpty(t, call.opts.Dir)
	require.Equal(t, 1, call.handle.Stopped())
	require.Empty(t, h.inv.BundledNames())

	require.NoDirExists(t, call.opts.Dir)
}

func TestDevServerRestartsOnConfigChange(t *testing.T) {
	first := projectConfig(t, devProject)
	second := projectConfig(t, `
browsers: "chrome >= 100"
entries:
  start:
    entry: ./src/next.js
dev_server:
  port: 3001
`)
	h := newHarness(t, "wds", first, second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runAsync(h, ctx)

	waitServed(t, h.inv)
	h.watcher.changes <- struct{}{}
	waitServed(t, h.inv)

	served := h.inv.Served()
	require.Len(t, served, 2)
	require.Equal(t, 1, served[0].handle.Stopped())
	require.Equal(t, "./src/next.js", served[1].cfg.Entry)
	require.Equal(t, 3001, served[1].opts.Port)
	require.Equal(t, served[0].opts.Dir, served[1].opts.Dir)

	cancel()
	require.NoError(t, waitDone(t, done))
	require.Equal(t, 1, served[1].handle.Stopped())
}

func TestDevServerKeepsRunningWhenReloadFails(t *testing.T) {
	good := projectConfig(t, devProject)
	broken := projectConfig(t, "entries:\n  start:\n    entry: ./src/index.js\n")
	h := newHarness(t, "wds", good, broken)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runAsync(h, ctx)

	waitServed(t, h.inv)
	h.watcher.changes <- struct{}{}

	require.Eventually(t, func() bool {
		h.loader.mu.Lock()
		defer h.loader.mu.Unlock()
		return h.loader.n >= 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, waitDone(t, done))

	served := h.inv.Served()
	require.Len(t, served, 1)
	require.Equal(t, 1, served[0].handle.Stopped())
}

func TestDevServerStartFailureIsServerError(t *testing.T) {
	h := newHarness(t, "wds", projectConfig(t, devProject))
	h.inv.serveErr = errBoom

	err := h.orch.Run(context.Background(), h.rc)
	require.Error(t, err)
	require.ErrorIs(t, err, errBoom)
	require.Contains(t, err.Error(), "failed to start dev server")
}
