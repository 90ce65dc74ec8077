//go:build ignore

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type Message struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"room_id,omitempty"`
	MemberID  string          `json:"member_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func send(c *websocket.Conn, msgType, memberID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Fatal("marshal:", err)
	}

	msg, _ := json.Marshal(Message{Type: msgType, MemberID: memberID, Timestamp: time.Now(), Payload: raw})
	fmt.Printf("📤 Sending %s: %s\n", msgType, msg)

	if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Fatal("write:", err)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/test_websocket.go <member_id> [host]")
		fmt.Println("Example: go run scripts/test_websocket.go alice localhost:8080")
		os.Exit(1)
	}

	memberID := os.Args[1]

	host := "localhost:8080"
	if len(os.Args) > 2 {
		host = os.Args[2]
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/v1/ws"}
	fmt.Printf("Connecting to %s\n", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	fmt.Println("✅ Connected to WebSocket!")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})

	// read messages
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}
			fmt.Printf("📨 Received: %s\n", message)
		}
	}()

	send(c, "join", "", map[string]any{"member_id": memberID, "name": memberID})

	// draw a short diagonal once joined
	time.Sleep(500 * time.Millisecond)
	for i := range 5 {
		send(c, "submit_update", memberID, map[string]any{
			"id":    fmt.Sprintf("%s-%d", memberID, i),
			"x":     10 * i,
			"y":     10 * i,
			"color": "black",
		})
	}

	send(c, "request_state", memberID, nil)

	// wait for interrupt or done
	select {
	case <-done:
		return
	case <-interrupt:
		fmt.Println("\n🛑 Interrupt received, leaving canvas...")

		send(c, "leave", memberID, nil)

		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
