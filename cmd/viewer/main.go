package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"support-relay/client"
	"support-relay/contract"
	"support-relay/domain"
	"support-relay/services"
)

// Exit codes for the viewer application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the viewer-side environment variables.
type Config struct {
	ServerURL string `env:"RELAY_SERVER_URL,default=ws://localhost:8080/ws"`
	AdminID   string `env:"RELAY_ADMIN_ID,default=admin"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Viewer error: %v\n", err)
	}
	os.Exit(code)
}

// run connects as an admin, prints incoming messages and keeps a live
// table of correspondents. Every received message is acknowledged as
// delivered on behalf of the operator.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect and register as admin.
	c, err := client.Dial(config.ServerURL)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		_ = c.Close()
	}()

	if err := c.Register(config.AdminID, domain.RoleAdmin); err != nil {
		return exitRuntime, fmt.Errorf("register failed: %w", err)
	}
	if err := c.RequestUsers(); err != nil {
		return exitRuntime, fmt.Errorf("initial user listing failed: %w", err)
	}

	color.Green.Printf(">>> Connected to %s as %s (Ctrl+C to quit)\n", config.ServerURL, config.AdminID)

	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	// 4. Event loop.
	for {
		envelope, err := c.Next(0)
		if err != nil {
			if ctx.Err() != nil {
				color.Yellow.Println("Stopping viewer...")
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		}

		switch envelope.Event {
		case contract.EventReceiveMessage:
			var message services.MessagePayload
			if err := json.Unmarshal(envelope.Data, &message); err != nil {
				continue
			}
			color.Cyan.Printf("[%s] %s: %s\n", message.Timestamp, message.FromUserID, message.Body)
			_ = c.AckDelivered(message.ID)

		case contract.EventUsersList:
			var correspondents []services.Correspondent
			if err := json.Unmarshal(envelope.Data, &correspondents); err != nil {
				continue
			}
			printCorrespondents(correspondents)

		case contract.EventUserOnline, contract.EventUserOffline:
			// Presence changed, refresh the listing.
			_ = c.RequestUsers()

		case contract.EventMessageSeen:
			var id string
			if err := json.Unmarshal(envelope.Data, &id); err == nil {
				color.Gray.Printf("seen: %s\n", id)
			}
		}
	}
}

func printCorrespondents(correspondents []services.Correspondent) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User", "Name", "Last message", "When", "Online"})

	for _, c := range correspondents {
		online := color.Red.Sprint("no")
		if c.IsOnline {
			online = color.Green.Sprint("yes")
		}
		when := "-"
		if !c.LastMessageTime.IsZero() {
			when = c.LastMessageTime.Local().Format("15:04:05")
		}
		table.Append([]string{c.UserID, c.Name, truncate(c.LastMessage, 40), when, online})
	}
	table.Render()
}

// truncate shortens to n runes, never splitting a multi-byte character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
