package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"redistics/internal/model"
	"redistics/internal/vault"
)

func miniPort(t *testing.T, srv *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(srv.Port())
	if err != nil {
		t.Fatalf("miniredis port: %v", err)
	}
	return port
}

func testRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	v, err := vault.New(dir)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	r, err := New(dir, v, 5*time.Second)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	t.Cleanup(r.Close)
	return r, dir
}

func TestAddProfileEncryptsPassword(t *testing.T) {
	r, dir := testRegistry(t)

	p, err := r.AddProfile(model.Profile{Name: "prod", Host: "redis.internal", Port: 6379, Password: "s3cret"})
	if err != nil {
		t.Fatalf("AddProfile: %v", err)
	}
	if p.ID == "" {
		t.Fatal("profile id not assigned")
	}
	if p.Password == "s3cret" {
		t.Fatal("password stored in plaintext")
	}

	// 1. The file on disk never contains the plaintext.
	raw, err := os.ReadFile(filepath.Join(dir, "servers.yaml"))
	if err != nil {
		t.Fatalf("read servers.yaml: %v", err)
	}
	if strings.Contains(string(raw), "s3cret") {
		t.Error("plaintext password leaked into servers.yaml")
	}

	// 2. A fresh registry over the same dir sees the profile.
	v2, err := vault.New(dir)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	r2, err := New(dir, v2, time.Second)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := r2.List()
	if len(got) != 1 || got[0].Name != "prod" {
		t.Fatalf("reloaded profiles = %+v", got)
	}
	plain, err := v2.Decrypt(got[0].Password)
	if err != nil || plain != "s3cret" {
		t.Errorf("decrypt reloaded password: %q, %v", plain, err)
	}
}

func TestUpdateAndRemoveProfile(t *testing.T) {
	r, _ := testRegistry(t)

	p, _ := r.AddProfile(model.Profile{Name: "a", Host: "h", Port: 6379})
	p.Name = "renamed"
	if err := r.UpdateProfile(p); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, _ := r.Profile(p.ID)
	if got.Name != "renamed" {
		t.Errorf("name = %q", got.Name)
	}

	if err := r.UpdateProfile(model.Profile{ID: "ghost"}); !errors.Is(err, model.ErrProfileNotFound) {
		t.Errorf("update ghost = %v", err)
	}
	if err := r.RemoveProfile(p.ID); err != nil {
		t.Fatalf("RemoveProfile: %v", err)
	}
	if _, err := r.Profile(p.ID); !errors.Is(err, model.ErrProfileNotFound) {
		t.Errorf("profile survived removal: %v", err)
	}
}

func TestConnectSuccess(t *testing.T) {
	srv := miniredis.RunT(t)
	r, _ := testRegistry(t)

	p, _ := r.AddProfile(model.Profile{Name: "local", Host: srv.Host(), Port: miniPort(t, srv)})
	st, err := r.Connect(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !st.Connected || st.LastError != "" {
		t.Fatalf("state = %+v", st)
	}

	client, release, err := r.Acquire(p.ID)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Errorf("acquired client ping: %v", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	r, _ := testRegistry(t)

	// A port nothing listens on.
	p, _ := r.AddProfile(model.Profile{Name: "down", Host: "127.0.0.1", Port: 1})
	st, err := r.Connect(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Connect returned hard error: %v", err)
	}
	if st.Connected {
		t.Fatal("connected to an unreachable port")
	}
	if st.LastError == "" {
		t.Fatal("failed connect must carry an error message")
	}
	if _, _, err := r.Acquire(p.ID); !errors.Is(err, model.ErrNotConnected) {
		t.Errorf("Acquire after failed connect = %v", err)
	}
}

func TestConnectUnknownProfile(t *testing.T) {
	r, _ := testRegistry(t)
	if _, err := r.Connect(context.Background(), "ghost"); !errors.Is(err, model.ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	srv := miniredis.RunT(t)
	r, _ := testRegistry(t)

	var stopped []string
	r.SetMonitorHooks(
		func(id string) bool { return false },
		func(id string) { stopped = append(stopped, id) },
	)

	p, _ := r.AddProfile(model.Profile{Name: "local", Host: srv.Host(), Port: miniPort(t, srv)})
	if _, err := r.Connect(context.Background(), p.ID); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	r.Disconnect(p.ID)
	r.Disconnect(p.ID)

	if len(stopped) != 2 {
		t.Errorf("monitor stop hook ran %d times, want 2", len(stopped))
	}
	if _, _, err := r.Acquire(p.ID); !errors.Is(err, model.ErrNotConnected) {
		t.Errorf("Acquire after disconnect = %v", err)
	}

	states := r.Sessions()
	if len(states) != 1 || states[0].Connected {
		t.Errorf("sessions = %+v", states)
	}
}

func TestCorruptPasswordFallsBackToPlaintext(t *testing.T) {
	srv := miniredis.RunT(t)
	srv.RequireAuth("plaintext-pass")
	r, _ := testRegistry(t)

	// Stored password is not a vault envelope; connect should try it as-is.
	p, _ := r.AddProfile(model.Profile{Name: "legacy", Host: srv.Host(), Port: miniPort(t, srv)})
	p.Password = "plaintext-pass"
	if err := r.UpdateProfile(p); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	st, err := r.Connect(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !st.Connected {
		t.Fatalf("state = %+v", st)
	}
}
