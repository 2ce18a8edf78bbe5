// Package llm speaks the OpenAI-compatible streaming chat completions
// protocol: one client per process, one request per move, reasoning text
// surfaced incrementally while the reply streams in. Requests are spaced
// by a process-wide limiter and every exchange is appended to a JSONL log.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	completionTemperature = 0.3
	completionMaxTokens   = 4096
)

// Message is one chat completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Endpoint identifies an OpenAI-compatible upstream and the model to ask for.
type Endpoint struct {
	URL   string
	Key   string
	Model string
}

// Result is the assembled outcome of one streamed completion. Content is
// the visible reply with surrounding whitespace trimmed.
type Result struct {
	Content    string
	Thinking   string
	ChunkCount int
	FirstChunk string
}

// ThinkingFunc receives reasoning text as it streams in: the new fragment
// and everything accumulated so far, think-tag content included.
type ThinkingFunc func(delta, accumulated string)

// Client is a streaming chat completions client.
type Client struct {
	httpClient *http.Client
	limiter    *Limiter
	exchanges  *ExchangeLog
	logger     *zap.Logger
}

// NewClient builds a client around the shared limiter and exchange log.
// The transport carries no total timeout: a completion may legitimately
// stream for minutes, so cancellation is the caller's context.
func NewClient(limiter *Limiter, exchanges *ExchangeLog, logger *zap.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 300 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		limiter:    limiter,
		exchanges:  exchanges,
		logger:     logger,
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta streamDelta `json:"delta"`
	} `json:"choices"`
}

type streamDelta struct {
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content"`
	Thinking         string `json:"thinking"`
}

// reasoningText returns whichever reasoning field the upstream populated.
func (d streamDelta) reasoningText() string {
	if d.ReasoningContent != "" {
		return d.ReasoningContent
	}
	return d.Thinking
}

// Complete streams one chat completion. Reasoning deltas, whether sent as
// dedicated fields or inline think tags, flow to onThinking as they arrive;
// the final visible content and accumulated reasoning come back in the
// Result. The limiter is consulted before the request leaves.
func (c *Client) Complete(ctx context.Context, ep Endpoint, messages []Message, onThinking ThinkingFunc) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(completionRequest{
		Model:       ep.Model,
		Messages:    messages,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+ep.Key)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordError(ep, messages, 0, "", err.Error())
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("upstream rejected completion",
			zap.String("model", ep.Model),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		c.recordError(ep, messages, resp.StatusCode, string(respBody), "upstream rejected completion")
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, respBody)
	}

	// Context cancellation does not interrupt resp.Body.Read. The watcher
	// force-closes the body so the scanner unblocks.
	streamDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.logger.Info("force-closing completion stream", zap.Error(ctx.Err()))
			resp.Body.Close()
		case <-streamDone:
		}
	}()

	result, err := c.readStream(ctx, resp.Body, onThinking)
	close(streamDone)
	if err != nil {
		c.recordError(ep, messages, 0, "", err.Error())
		return nil, err
	}

	c.exchanges.Record(Exchange{
		Timestamp: time.Now(),
		Model:     ep.Model,
		Endpoint:  ep.URL,
		Messages:  messages,
		Response: &ExchangeResponse{
			Content:       result.Content,
			Thinking:      result.Thinking,
			RawChunkCount: result.ChunkCount,
			RawFirstChunk: result.FirstChunk,
		},
	})
	return result, nil
}

// readStream consumes the SSE body line by line. Chunks that fail to parse
// are skipped; the stream ends at [DONE] or when the body does.
func (c *Client) readStream(ctx context.Context, body io.Reader, onThinking ThinkingFunc) (*Result, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	res := &Result{}
	var content, thinking strings.Builder

	emitThinking := func(delta string) {
		if delta == "" {
			return
		}
		thinking.WriteString(delta)
		if onThinking != nil {
			onThinking(delta, thinking.String())
		}
	}
	demux := newThinkDemux(func(thought bool, text string) {
		if thought {
			emitThinking(text)
		} else {
			content.WriteString(text)
		}
	})

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("skipping unparseable stream chunk", zap.Error(err))
			continue
		}
		res.ChunkCount++
		if res.ChunkCount == 1 {
			res.FirstChunk = data
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		emitThinking(delta.reasoningText())
		if delta.Content != "" {
			demux.Write(delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading completion stream: %w", err)
	}

	demux.Flush()
	res.Content = strings.TrimSpace(content.String())
	res.Thinking = thinking.String()
	return res, nil
}

func (c *Client) recordError(ep Endpoint, messages []Message, status int, body, msg string) {
	c.exchanges.Record(Exchange{
		Timestamp: time.Now(),
		Model:     ep.Model,
		Endpoint:  ep.URL,
		Messages:  messages,
		Error:     &ExchangeError{Status: status, Body: body, Message: msg},
	})
}

var networkErrMarkers = []string{
	"fetch", "econnrefused", "network", "enotfound", "timeout",
	"connection refused", "connection reset", "no such host",
}

// IsNetworkError reports whether an error reads like a transport failure
// rather than an upstream rejection. Native transport errors unwrap to
// net.Error; the substring scan covers failure strings relayed verbatim
// by proxies and gateways.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range networkErrMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
