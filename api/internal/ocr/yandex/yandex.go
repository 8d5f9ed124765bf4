package yandex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"task-helper/api/internal/ocr"
	"task-helper/api/internal/util"
)

const defaultOCRURL = "https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText"

var ErrNotConfigured = errors.New("yandex ocr: YC_OAUTH_TOKEN or YC_FOLDER_ID is empty")

type Engine struct {
	iamc     *IamClient
	folderID string
	url      string
	httpc    *http.Client
}

func New(oauthToken, folderID string) *Engine {
	return &Engine{
		iamc:     NewIamClient(oauthToken),
		folderID: folderID,
		url:      defaultOCRURL,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "yandex" }

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`      // "JPEG" | "PNG" | "PDF"
	LanguageCodes []string `json:"languageCodes,omitempty"` // ["uk","en"]
	Model         string   `json:"model,omitempty"`         // "page", "handwritten"
}

type textAnnotation struct {
	FullText string `json:"fullText,omitempty"`
	Blocks   []struct {
		Lines []struct {
			Text string `json:"text,omitempty"`
		} `json:"lines,omitempty"`
	} `json:"blocks,omitempty"`
}

type response struct {
	Result *struct {
		TextAnnotation *textAnnotation `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

// коды tesseract -> ISO 639-1, как ждёт Vision OCR
var langCodes = map[string]string{"ukr": "uk", "eng": "en", "rus": "ru", "deu": "de", "pol": "pl"}

func isoLangs(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if c, ok := langCodes[l]; ok {
			out = append(out, c)
		} else if len(l) == 2 {
			out = append(out, l)
		}
	}
	return out
}

func (e *Engine) Recognize(ctx context.Context, image []byte, opt ocr.Options) (string, error) {
	if e.iamc.oauth == "" || e.folderID == "" {
		return "", ErrNotConfigured
	}
	reqBody := request{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      util.SniffMimeForOCR(image),
		LanguageCodes: isoLangs(opt.Langs),
		Model:         opt.Model,
	}
	if reqBody.Model == "" {
		reqBody.Model = "page"
	}
	payload, _ := json.Marshal(reqBody)

	resp, err := e.post(ctx, payload)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// один ретрай со свежим токеном
		resp.Body.Close()
		e.iamc.Reset()
		if resp, err = e.post(ctx, payload); err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return "", nil
	}
	ta := out.Result.TextAnnotation
	if t := strings.TrimSpace(ta.FullText); t != "" {
		return t, nil
	}
	// fallback: lines
	var lines []string
	for _, b := range ta.Blocks {
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Engine) post(ctx context.Context, payload []byte) (*http.Response, error) {
	iamToken, err := e.iamc.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", e.folderID)
	return e.httpc.Do(req)
}
