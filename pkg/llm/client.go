// Package llm provides a streaming client for the Gemini generation API.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Agk8907/AI-chat-Application/internal/config"
	"github.com/Agk8907/AI-chat-Application/pkg/log"
)

// ErrUpstreamUnavailable 表示上游生成接口在开始流式输出前返回了非成功状态。
var ErrUpstreamUnavailable = errors.New("upstream generation api unavailable")

// ChunkWriter 接收流式输出的增量文本片段。
// 既可以是直接写向客户端的 writer，也可以是带累积功能的拦截器。
type ChunkWriter interface {
	WriteChunk(data []byte) error
}

// Client defines the interface for an LLM streaming client.
type Client interface {
	// StreamGenerateContent 将 prompt 发送给上游，把解码出的文本片段按序写入 writer。
	// 上下文被取消时停止读取并返回 nil，已写入的片段保持有效。
	StreamGenerateContent(ctx context.Context, prompt string, writer ChunkWriter) error
}

type geminiClient struct {
	cfg    config.GeminiConfig
	client *http.Client
}

// NewClient creates a new Gemini client from the config.
func NewClient(cfg config.GeminiConfig) Client {
	return &geminiClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse 只取我们关心的字段，其余事件内容忽略。
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// StreamGenerateContent calls the Gemini streaming endpoint and relays decoded
// text fragments to the writer as they arrive.
func (c *geminiClient) StreamGenerateContent(ctx context.Context, prompt string, writer ChunkWriter) error {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?key=%s&alt=sse",
		c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Errorf("Gemini API error: status=%s body=%s", resp.Status, string(bodyBytes))
		return fmt.Errorf("%w: status %s", ErrUpstreamUnavailable, resp.Status)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			// 客户端中断：停止读取，保留已转发的片段
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if strings.TrimSpace(data) == "[DONE]" {
			break
		}

		// 格式不符的事件静默跳过，不视为错误
		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Candidates) == 0 || len(chunk.Candidates[0].Content.Parts) == 0 {
			continue
		}

		text := chunk.Candidates[0].Content.Parts[0].Text
		if text == "" {
			continue
		}
		if err := writer.WriteChunk([]byte(text)); err != nil {
			// 客户端中断时断连可能先出现在写端而不是读端，两条路径同样处理：
			// 停止转发并保留已写入的片段
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to write chunk: %w", err)
		}
	}
	return nil
}
