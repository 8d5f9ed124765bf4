package yandex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const defaultIAMURL = "https://iam.api.cloud.yandex.net/iam/v1/tokens"

// IamClient обменивает OAuth-токен на IAM-токен и держит его в памяти до истечения.
type IamClient struct {
	httpc  *http.Client
	url    string
	oauth  string
	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewIamClient(oauth string) *IamClient {
	return &IamClient{
		httpc: &http.Client{Timeout: 20 * time.Second},
		url:   defaultIAMURL,
		oauth: oauth,
	}
}

// Reset сбрасывает закэшированный токен (например, после 401).
func (c *IamClient) Reset() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *IamClient) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry.Add(-time.Minute)) {
		return c.token, nil
	}

	b, _ := json.Marshal(map[string]string{"yandexPassportOauthToken": c.oauth})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iam %d", resp.StatusCode)
	}

	var out struct {
		IamToken string `json:"iamToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	c.token = out.IamToken
	c.expiry = time.Now().Add(11 * time.Hour)
	return c.token, nil
}
