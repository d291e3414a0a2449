package ogimage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var ErrUnsupportedUrl = errors.New("ogimage: unsupported image url")

// Fetcher downloads remote images.
type Fetcher interface {
	Fetch(ctx context.Context, imageUrl string) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, imageUrl string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, imageUrl string) ([]byte, error) {
	return f(ctx, imageUrl)
}

// MaxImageSize limits fetched image bodies.
const MaxImageSize = 5 << 20

// AgentFetcher downloads images with a fiber client agent.
type AgentFetcher struct {
	Timeout time.Duration
}

func (f AgentFetcher) Fetch(ctx context.Context, imageUrl string) ([]byte, error) {
	u, err := url.Parse(imageUrl)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, ErrUnsupportedUrl
	}

	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	timeout := f.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout == 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	agent.MaxRedirectsCount(3)

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodGet)
	req.SetRequestURI(u.String())

	err = agent.Parse()
	if err != nil {
		return nil, fmt.Errorf("agent parse: %w", err)
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) != 0 {
		return nil, fmt.Errorf("agent bytes: %v", errs)
	}
	if statusCode != fiber.StatusOK {
		return nil, fmt.Errorf("invalid status code %d", statusCode)
	}
	if len(body) > MaxImageSize {
		return nil, fmt.Errorf("image too large: %d bytes", len(body))
	}
	return body, nil
}

// decodeDataUrl returns the payload of a base64 "data:" url.
func decodeDataUrl(dataUrl string) ([]byte, error) {
	rest, ok := strings.CutPrefix(dataUrl, "data:")
	if !ok {
		return nil, ErrUnsupportedUrl
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrUnsupportedUrl
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
