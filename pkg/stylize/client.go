package stylize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client talks to an arbitrary-image-stylization inference server. The
// server takes a content image and a style image and returns the stylized
// result as JPEG. Model weights live server-side; this client is the only
// contact surface the pipeline has with the model.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Inference on a cold model can take a while.
			Timeout: 2 * time.Minute,
		},
	}
}

// Warmup pings the server's health endpoint. Used as the cheap "model load"
// probe so a dead endpoint fails at style-load time, not mid-run.
func (c *Client) Warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stylize server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stylize server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Stylize sends content and style as JPEG multipart parts and decodes the
// stylized JPEG response.
func (c *Client) Stylize(ctx context.Context, content, style image.Image) (image.Image, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for name, img := range map[string]image.Image{"content": content, "style": style} {
		part, err := writer.CreateFormFile(name, name+".jpg")
		if err != nil {
			return nil, err
		}
		if err := jpeg.Encode(part, img, &jpeg.Options{Quality: 95}); err != nil {
			return nil, fmt.Errorf("failed to encode %s image: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/stylize", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stylize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stylize server returned status %d: %s", resp.StatusCode, string(msg))
	}

	stylized, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stylized image: %w", err)
	}
	return stylized, nil
}
