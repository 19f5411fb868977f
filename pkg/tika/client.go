// Package tika 提供了一个与 Apache Tika 服务器交互的客户端。
// 它是提取器的兜底通道，处理没有本地解析器的文件类型（如 .doc）。
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Client 是 Tika 服务器的客户端。
type Client struct {
	serverURL string
	client    *http.Client
}

// NewClient 创建一个新的 Tika 客户端实例。
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		client:    http.DefaultClient,
	}
}

// Available 报告是否配置了 Tika 服务器地址。
func (c *Client) Available() bool {
	return c != nil && c.serverURL != ""
}

// ExtractText 将文件内容发送给 Tika 并返回提取出的纯文本。
func (c *Client) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("tika 服务器未配置")
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", c.serverURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Accept", "text/plain")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用 Tika 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Tika 返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return "", fmt.Errorf("读取 Tika 响应失败: %w", err)
	}

	return buf.String(), nil
}
