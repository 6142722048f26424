package core

import (
	"context"
	"strconv"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(&fakeMessages{}, &fakeBlobs{}, Options{})
	go hub.Run(ctx)

	drain := func(c *Client) {
		for range c.Events {
		}
	}

	sender := NewClient()
	if err := hub.RegisterClient(sender); err != nil {
		b.Fatal(err)
	}
	go drain(sender)
	sender.Commands <- &Command{Kind: CommandJoin, User: "sender", Room: "bench"}

	// The target joins last so its buffer only holds its own join events.
	var target *Client
	for i := 0; i < recipients; i++ {
		c := NewClient()
		if err := hub.RegisterClient(c); err != nil {
			b.Fatal(err)
		}
		if i < recipients-1 {
			go drain(c)
		} else {
			target = c
		}
		c.Commands <- &Command{Kind: CommandJoin, User: "client-" + strconv.Itoa(i), Room: "bench"}
	}

	for {
		ev := <-target.Events
		if ev.Kind == EventUserList {
			break
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandMessage, Room: "bench", Content: "payload"}
		for {
			ev := <-target.Events
			if ev.Kind == EventMessage {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
