package tui

import (
	"bufio"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leonardotrapani/urduscribe/internal/bus"
	"github.com/leonardotrapani/urduscribe/internal/pipeline"
)

func TestFetchSnapshot(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	ln, err := bus.Listen()
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			line, _ := bufio.NewReader(c).ReadString('\n')
			switch line[0] {
			case bus.CmdStatus:
				c.Write([]byte(bus.FormatFields("STATUS", "status", "active", "permission", "granted", "session", "abc", "error", "")))
			case bus.CmdTranscript:
				c.Write([]byte(bus.FormatFields("TRANSCRIPT", "text", "میرا نام\n")))
			}
			c.Close()
		}
	}()

	snap, err := FetchSnapshot()
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	want := pipeline.Snapshot{Status: pipeline.Active, Permission: "granted", SessionID: "abc", Transcript: "میرا نام\n"}
	if snap != want {
		t.Errorf("FetchSnapshot() = %+v, want %+v", snap, want)
	}
}

func TestFetchSnapshot_NoDaemon(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	if _, err := FetchSnapshot(); err == nil {
		t.Error("FetchSnapshot() should fail without a daemon")
	}
}

func newTestRemote(fetch func() (pipeline.Snapshot, error), send func(byte) (string, error)) *Remote {
	return &Remote{interval: 10 * time.Millisecond, fetch: fetch, send: send}
}

func TestRemote_Poll(t *testing.T) {
	snap := pipeline.Snapshot{Status: pipeline.Idle}
	r := newTestRemote(func() (pipeline.Snapshot, error) { return snap, nil }, nil)

	if !r.poll() {
		t.Error("first poll should report a change")
	}
	if r.poll() {
		t.Error("unchanged snapshot should not report a change")
	}
	snap.Transcript = "میرا"
	if !r.poll() {
		t.Error("new transcript should report a change")
	}
	if got := r.Snapshot().Transcript; got != "میرا" {
		t.Errorf("Snapshot().Transcript = %q", got)
	}
}

func TestRemote_PollUnreachable(t *testing.T) {
	r := newTestRemote(func() (pipeline.Snapshot, error) { return pipeline.Snapshot{}, errors.New("dial unix: no such file") }, nil)
	r.poll()
	snap := r.Snapshot()
	if snap.Status != pipeline.Idle || snap.Error == "" {
		t.Errorf("unreachable daemon snapshot = %+v", snap)
	}
}

func TestRemote_Subscribe(t *testing.T) {
	r := newTestRemote(func() (pipeline.Snapshot, error) {
		return pipeline.Snapshot{Status: pipeline.Active}, nil
	}, nil)

	ch, cancel := r.Subscribe()
	defer cancel()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
	if got := r.Snapshot().Status; got != pipeline.Active {
		t.Errorf("Snapshot().Status = %s", got)
	}
}

func TestRemote_StartStop(t *testing.T) {
	var sent []byte
	reply := "OK status=active\n"
	r := newTestRemote(nil, func(cmd byte) (string, error) {
		sent = append(sent, cmd)
		return reply, nil
	})

	if err := r.Start(context.Background()); err != nil {
		t.Errorf("Start() error = %v", err)
	}

	reply = bus.FormatFields("ERR", "error", pipeline.MsgPermissionDenied)
	err := r.Start(context.Background())
	if err == nil || err.Error() != pipeline.MsgPermissionDenied {
		t.Errorf("Start() error = %v, want the daemon's message", err)
	}

	r.Stop()
	if string(sent) != "rrx" {
		t.Errorf("sent commands = %q, want \"rrx\"", sent)
	}
}
