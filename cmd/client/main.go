package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-relay/gateway"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	Token     string `env:"CHAT_TOKEN,required=true"`
	ChatID    string `env:"CHAT_ID,required=true"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the connection lifecycle: dial, authenticate, join, then a
// read loop printing server frames while stdin lines become messages.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Dial the relay and open the duplex connection.
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerURL, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(gateway.ClientFrame{Type: "authenticate", Token: config.Token}); err != nil {
		return exitRuntime, fmt.Errorf("authenticate failed: %w", err)
	}
	if err := conn.WriteJSON(gateway.ClientFrame{Type: "join_chat", ChatID: config.ChatID}); err != nil {
		return exitRuntime, fmt.Errorf("join failed: %w", err)
	}

	header := fmt.Sprintf(">>> Connected to %s, chat %s (Ctrl+C to quit)", config.ServerURL, config.ChatID)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	// 4. Stdin loop: every line becomes a message in the joined chat.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			content := strings.TrimSpace(scanner.Text())
			if content == "" {
				continue
			}
			frame := gateway.ClientFrame{Type: "send_message", ChatID: config.ChatID, Content: content}
			if err := conn.WriteJSON(frame); err != nil {
				fmt.Println(color.Red.Render(fmt.Sprintf("send failed: %v", err)))
				return
			}
		}
	}()

	// Unblock the read loop when the user interrupts.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	// 5. Frame reception loop.
	for {
		var frame gateway.ServerFrame
		if err := conn.ReadJSON(&frame); err != nil {
			// Normal exit if the user triggered a shutdown.
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection error: %w", err)
		}
		render(frame)
	}
}

func render(frame gateway.ServerFrame) {
	switch frame.Type {
	case "message":
		m := frame.Message
		if m == nil {
			return
		}
		fmt.Printf("%s %s: %s\n",
			color.Gray.Render(m.Timestamp.Format(time.TimeOnly)),
			color.Cyan.Render(m.SenderID),
			m.Content)
	case "messages_read":
		fmt.Println(color.Gray.Render(fmt.Sprintf("-- %s read chat %s", frame.UserID, frame.ChatID)))
	case "user_typing":
		if frame.IsTyping {
			fmt.Println(color.Gray.Render(fmt.Sprintf("-- %s is typing...", frame.UserID)))
		}
	case "online_users":
		fmt.Println(color.Green.Render(fmt.Sprintf("-- online: %s", strings.Join(frame.UserIDs, ", "))))
	case "error":
		fmt.Println(color.Red.Render(fmt.Sprintf("!! %s", frame.Reason)))
	}
}
