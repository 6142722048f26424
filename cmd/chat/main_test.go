package main

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	applog "github.com/vovakirdan/roomrelay/internal/log"
	"github.com/vovakirdan/roomrelay/internal/proto"
)

func TestInboundForCommands(t *testing.T) {
	s := &session{log: applog.Nop(), user: "alice", room: "lobby"}

	in, err := s.inboundFor("hello there")
	if err != nil || in.Type != proto.InboundTypeMessage || in.Room != "lobby" || in.Content != "hello there" {
		t.Fatalf("unexpected message envelope: %+v, %v", in, err)
	}

	in, err = s.inboundFor("/join garden")
	if err != nil || in.Type != proto.InboundTypeJoin || in.Room != "garden" || in.User != "alice" {
		t.Fatalf("unexpected join envelope: %+v, %v", in, err)
	}
	if s.room != "garden" {
		t.Fatalf("room not switched: %q", s.room)
	}

	in, err = s.inboundFor("/leave")
	if err != nil || in.Type != proto.InboundTypeLeave || in.Room != "garden" {
		t.Fatalf("unexpected leave envelope: %+v, %v", in, err)
	}
}

func TestInboundForImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.gif")
	if err := os.WriteFile(path, []byte("GIF89a"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := &session{log: applog.Nop(), user: "alice", room: "lobby"}
	in, err := s.inboundFor("/image " + path)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if in.Type != proto.InboundTypeImage || in.Filename != "cat.gif" || in.Data != base64.StdEncoding.EncodeToString([]byte("GIF89a")) {
		t.Fatalf("unexpected image envelope: %+v", in)
	}

	if _, err := s.inboundFor("/image " + filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
