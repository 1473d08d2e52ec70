package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Ntfy publishes to an ntfy.sh topic (or a self-hosted ntfy server).
type Ntfy struct {
	Server string
	Topic  string
	Token  string // optional bearer token
	Client *http.Client
}

func NewNtfy(server, topic, token string) *Ntfy {
	if topic == "" {
		return nil
	}
	if server == "" {
		server = "https://ntfy.sh"
	}
	return &Ntfy{
		Server: strings.TrimSuffix(server, "/"),
		Topic:  topic,
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type ntfyPayload struct {
	Topic   string `json:"topic"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (n *Ntfy) Send(ctx context.Context, title, text string) error {
	if n == nil || n.Topic == "" {
		return fmt.Errorf("ntfy disabled")
	}
	body, err := json.Marshal(ntfyPayload{Topic: n.Topic, Title: title, Message: text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Server, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.Token)
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}
