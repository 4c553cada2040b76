package food

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type PhotoKind string

const (
	PhotoDish        PhotoKind = "dish"
	PhotoIngredients PhotoKind = "ingredients"
)

// PhotoIntake classifies a photo and extracts its ingredients. A nil intake
// means the feature is not configured.
type PhotoIntake interface {
	Analyze(ctx context.Context, image []byte) (PhotoKind, []string, error)
}

type PhotoIntakeConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// HTTPPhotoIntake posts photos as multipart "file" uploads and expects
// {"kind": "dish"|"ingredients", "ingredients": [...]} back.
type HTTPPhotoIntake struct {
	url    string
	token  string
	client *http.Client
}

// NewHTTPPhotoIntake returns nil when no URL is configured.
func NewHTTPPhotoIntake(cfg PhotoIntakeConfig) *HTTPPhotoIntake {
	if cfg.URL == "" {
		return nil
	}
	return &HTTPPhotoIntake{
		url:    cfg.URL,
		token:  cfg.Token,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type intakeResponse struct {
	Kind        string `json:"kind"`
	Ingredients []any  `json:"ingredients"`
}

func (p *HTTPPhotoIntake) Analyze(ctx context.Context, image []byte) (PhotoKind, []string, error) {
	body, contentType, err := multipartImage(image)
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, body)
	if err != nil {
		return "", nil, fmt.Errorf("build photo intake request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("photo intake request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", nil, fmt.Errorf("photo intake returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var payload intakeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", nil, fmt.Errorf("decode photo intake response: %w", err)
	}

	kind := PhotoDish
	if payload.Kind == string(PhotoIngredients) {
		kind = PhotoIngredients
	}
	var ingredients []string
	for _, item := range payload.Ingredients {
		if s := strings.TrimSpace(cast.ToString(item)); s != "" {
			ingredients = append(ingredients, s)
		}
	}
	return kind, ingredients, nil
}

func multipartImage(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="photo.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
