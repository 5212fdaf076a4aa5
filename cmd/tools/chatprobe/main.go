// chatprobe sends one message through a running gateway and prints the
// paced reply as it streams, which makes pacing regressions visible
// from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/AudreyYZY/ADHD-Timebox/internal/model/chat"
	"github.com/AudreyYZY/ADHD-Timebox/pkg/chatclient"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	gatewayURL := flag.String("url", "http://localhost:8787", "gateway base URL")
	message := flag.String("message", "", "message to send")
	user := flag.String("user", "probe", "user id for the dev header")
	token := flag.String("token", "", "session token; overrides the dev header")
	timeout := flag.Duration("timeout", 90*time.Second, "overall timeout")

	flag.Parse()

	if *message == "" {
		flag.Usage()
		log.Fatal("specify the message to send with -message")
	}

	opts := []chatclient.Option{chatclient.WithHeader("X-User-Id", *user)}
	if *token != "" {
		opts = []chatclient.Option{chatclient.WithHeader("Authorization", "Bearer "+*token)}
	}
	client := chatclient.New(*gatewayURL, opts...)

	printed := 0
	client.OnChange(func() {
		for _, m := range client.Messages() {
			if m.Role != chat.RoleAssistant {
				continue
			}
			if len(m.Content) > printed {
				fmt.Print(m.Content[printed:])
				printed = len(m.Content)
			}
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	if err := client.Send(ctx, *message); err != nil {
		log.Printf("[WARN] send finished with error: %v", err)
	}
	fmt.Println()
	log.Printf("stream closed after %s, status=%s", time.Since(start).Round(time.Millisecond), client.Status())

	if client.Status() != chatclient.StatusIdle {
		os.Exit(1)
	}
}
