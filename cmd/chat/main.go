package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	applog "github.com/vovakirdan/roomrelay/internal/log"
	"github.com/vovakirdan/roomrelay/internal/proto"
)

var (
	addr     string
	user     string
	room     string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive terminal client for roomrelay",
	Long: `chat joins a room and relays lines typed on stdin as messages.

Commands:
  /image <path>   send an image file
  /join <room>    switch to another room
  /leave          leave the current room
  /quit           exit`,
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", "ws://localhost:4000/ws", "WebSocket address")
	rootCmd.Flags().StringVar(&user, "user", "cli-user", "username")
	rootCmd.Flags().StringVar(&room, "room", "lobby", "room to join")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
}

type session struct {
	conn *websocket.Conn
	log  *zerolog.Logger
	user string
	room string
}

func run(_ *cobra.Command, _ []string) error {
	logger := applog.New(logLevel)

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	s := &session{conn: conn, log: logger, user: user, room: room}
	if err := s.send(ctx, proto.Inbound{Type: proto.InboundTypeJoin, User: user, Room: room}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s in room %s\n", addr, user, room)
	fmt.Println("Type messages and press Enter to send. /quit or Ctrl+C to exit.")

	go func() {
		defer cancel()
		s.readLoop(ctx)
	}()

	s.writeLoop(ctx)
	return nil
}

func (s *session) send(ctx context.Context, in proto.Inbound) error {
	if err := wsjson.Write(ctx, s.conn, in); err != nil {
		return fmt.Errorf("send %s: %w", in.Type, err)
	}
	return nil
}

func (s *session) readLoop(ctx context.Context) {
	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, s.conn, &raw); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			s.log.Error().Err(err).Msg("read error")
			return
		}

		var header proto.Header
		if err := json.Unmarshal(raw, &header); err != nil {
			s.log.Warn().Err(err).Msg("undecodable envelope")
			continue
		}

		switch header.Type {
		case proto.OutboundTypeMessage, proto.OutboundTypeImage:
			var chat proto.Chat
			if decode(s.log, raw, &chat) {
				printChat(chat)
			}
		case proto.OutboundTypeHistory:
			var history proto.History
			if decode(s.log, raw, &history) {
				fmt.Printf("[room %s] %d earlier messages\n", history.Room, len(history.Messages))
				for _, chat := range history.Messages {
					printChat(chat)
				}
			}
		case proto.OutboundTypePopulation:
			var pop proto.Population
			if decode(s.log, raw, &pop) {
				fmt.Printf("[room %s] %d online\n", pop.Room, pop.Count)
			}
		case proto.OutboundTypeUserList:
			var list proto.UserList
			if decode(s.log, raw, &list) {
				fmt.Printf("[room %s] members: %s\n", list.Room, strings.Join(list.Users, ", "))
			}
		case proto.OutboundTypeError:
			var e proto.Error
			if decode(s.log, raw, &e) {
				fmt.Printf("error (%s): %s\n", e.Code, e.Message)
			}
		default:
			fmt.Printf("unknown envelope: %s\n", raw)
		}
	}
}

func decode(logger *zerolog.Logger, raw json.RawMessage, out any) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn().Err(err).Msg("unmarshal envelope")
		return false
	}
	return true
}

func printChat(chat proto.Chat) {
	if chat.ImageRef != "" {
		fmt.Printf("[%s] %s %s: %s (%s)\n", chat.Room, chat.Timestamp, chat.Sender, chat.Content, chat.ImageRef)
		return
	}
	fmt.Printf("[%s] %s %s: %s\n", chat.Room, chat.Timestamp, chat.Sender, chat.Content)
}

func (s *session) writeLoop(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if text == "/quit" {
				return
			}

			in, err := s.inboundFor(text)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			if err := s.send(ctx, in); err != nil {
				s.log.Error().Err(err).Msg("send error")
				return
			}
		}
	}
}

// inboundFor turns a typed line into an envelope, tracking room switches.
func (s *session) inboundFor(text string) (proto.Inbound, error) {
	switch {
	case strings.HasPrefix(text, "/image "):
		path := strings.TrimSpace(strings.TrimPrefix(text, "/image "))
		data, err := os.ReadFile(path)
		if err != nil {
			return proto.Inbound{}, fmt.Errorf("read image: %w", err)
		}
		return proto.Inbound{
			Type:     proto.InboundTypeImage,
			Room:     s.room,
			Data:     base64.StdEncoding.EncodeToString(data),
			Filename: filepath.Base(path),
		}, nil
	case strings.HasPrefix(text, "/join "):
		s.room = strings.TrimSpace(strings.TrimPrefix(text, "/join "))
		return proto.Inbound{Type: proto.InboundTypeJoin, User: s.user, Room: s.room}, nil
	case text == "/leave":
		return proto.Inbound{Type: proto.InboundTypeLeave, Room: s.room}, nil
	default:
		return proto.Inbound{Type: proto.InboundTypeMessage, Room: s.room, Content: text}, nil
	}
}
