package infra

// orange.go — SMS delivery through the Orange Sénégal API (OAuth 2.0 v3
// client-credentials flow). One credential pair per billing company; tokens
// are cached in-process until shortly before expiry.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"gestock/internal/config"
	"gestock/internal/model"
)

const (
	orangeTokenURL     = "https://api.orange.com/oauth/v3/token"
	orangeSMSBase      = "https://api.orange.com/smsmessaging/v1"
	orangeSenderNumber = "2210000" // country sender number for Senegal
)

type orangeCredentials struct {
	clientID     string
	clientSecret string
	senderName   string
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// OrangeClient sends SMS through the Orange API. Safe for concurrent use.
type OrangeClient struct {
	creds      map[string]orangeCredentials // keyed by company
	httpClient *http.Client

	mu     sync.Mutex
	tokens map[string]cachedToken
}

func NewOrangeClient(cfg *config.Config) *OrangeClient {
	return &OrangeClient{
		creds: map[string]orangeCredentials{
			model.CompanyNetsysteme: {cfg.OrangeClientID, cfg.OrangeClientSecret, cfg.OrangeSenderName},
			model.CompanySSE:        {cfg.OrangeClientIDSSE, cfg.OrangeClientSecretSSE, cfg.OrangeSenderNameSSE},
		},
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     make(map[string]cachedToken),
	}
}

// Configured reports whether credentials exist for the company. Callers skip
// SMS delivery (with a warning) instead of failing jobs when unconfigured.
func (c *OrangeClient) Configured(company string) bool {
	cr := c.credsFor(company)
	return cr.clientID != "" && cr.clientSecret != ""
}

func (c *OrangeClient) credsFor(company string) orangeCredentials {
	if cr, ok := c.creds[strings.ToUpper(company)]; ok {
		return cr
	}
	return c.creds[model.CompanyNetsysteme]
}

// NormalizePhone converts a local Senegalese number to the tel: format the
// Orange API expects (+221XXXXXXXXX).
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.ReplaceAll(p, " ", "")
	if strings.HasPrefix(p, "+") {
		return p
	}
	if strings.HasPrefix(p, "221") {
		return "+" + p
	}
	return "+221" + p
}

// SendSMS sends one message to one recipient on behalf of a company.
func (c *OrangeClient) SendSMS(ctx context.Context, company, toPhone, body string) error {
	cr := c.credsFor(company)
	if cr.clientID == "" || cr.clientSecret == "" {
		return fmt.Errorf("orange: API non configurée pour %s", company)
	}

	token, err := c.getToken(ctx, company, cr)
	if err != nil {
		return err
	}

	sender := "tel:" + orangeSenderNumber
	payload := map[string]interface{}{
		"outboundSMSMessageRequest": map[string]interface{}{
			"address":                   "tel:" + NormalizePhone(toPhone),
			"senderAddress":             sender,
			"senderName":                cr.senderName,
			"outboundSMSTextMessage":    map[string]string{"message": body},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("orange: marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/outbound/%s/requests", orangeSMSBase, url.PathEscape(sender))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("orange: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("orange: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("orange: gateway returned %d", resp.StatusCode)
	}
	return nil
}

// getToken returns a cached OAuth token for the company, fetching a new one
// when the cache is empty or expires within the next minute.
func (c *OrangeClient) getToken(ctx context.Context, company string, cr orangeCredentials) (string, error) {
	key := strings.ToUpper(company)

	c.mu.Lock()
	if t, ok := c.tokens[key]; ok && time.Until(t.expiresAt) > time.Minute {
		c.mu.Unlock()
		return t.token, nil
	}
	c.mu.Unlock()

	auth := base64.StdEncoding.EncodeToString([]byte(cr.clientID + ":" + cr.clientSecret))
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, orangeTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("orange: token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("orange: token fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("orange: token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("orange: decode token: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("orange: empty access token")
	}
	if body.ExpiresIn == 0 {
		body.ExpiresIn = 3600
	}

	c.mu.Lock()
	c.tokens[key] = cachedToken{
		token:     body.AccessToken,
		expiresAt: time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}
	c.mu.Unlock()

	return body.AccessToken, nil
}
