// Command wsclient sends each stdin line as a frame to a realtime endpoint
// and prints every frame it receives.
package main

import (
	"bufio"
	"context"
	"crm-realtime/auth"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wsclient: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	header := http.Header{}
	if cfg.JwtSecret != "" {
		token, err := auth.NewSigner(cfg.JwtSecret).GenerateToken(cfg.UserID, cfg.TokenTTL)
		if err != nil {
			return err
		}
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", cfg.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	defer conn.Close()

	p := printer{colours: cfg.Colours, out: os.Stdout}
	p.info("connected to " + cfg.URL)

	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			p.frame(data)
		}
	}()

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
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
			return nil
		case err := <-done:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return err
			}
		}
	}
}

type printer struct {
	colours bool
	out     io.Writer
}

func (p printer) info(s string) {
	if p.colours {
		s = color.New(color.BgBlack, color.FgGreen).Render(s)
	}
	fmt.Fprintln(p.out, s)
}

// frame prints error envelopes in red and everything else in cyan.
func (p printer) frame(data []byte) {
	s := string(data)
	if !p.colours {
		fmt.Fprintln(p.out, s)
		return
	}
	var envelope struct {
		Type string `json:"type"`
	}
	style := color.New(color.FgCyan)
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Type == "error" {
		style = color.New(color.FgRed, color.OpBold)
	}
	fmt.Fprintln(p.out, style.Render(s))
}
