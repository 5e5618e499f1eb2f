package core

import (
	"context"
	"strconv"
	"testing"
)

func benchmarkDesktopBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, Options{})
	go hub.Run(ctx)

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient("c"+strconv.Itoa(i), 64)
		hub.RegisterClient(c)
		<-c.Events // status ack
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	id := "p-1"
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := hub.AnnounceDesktop(ctx, &id); err != nil {
			b.Fatalf("announce: %v", err)
		}
		<-target.Events
	}
}

func BenchmarkDesktopBroadcast_10(b *testing.B)  { benchmarkDesktopBroadcast(b, 10) }
func BenchmarkDesktopBroadcast_100(b *testing.B) { benchmarkDesktopBroadcast(b, 100) }
func BenchmarkDesktopBroadcast_500(b *testing.B) { benchmarkDesktopBroadcast(b, 500) }
