// Package sms delivers text messages through the Twilio REST API.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.twilio.com"

// TwilioClient sends SMS messages via Twilio's Messages endpoint.
type TwilioClient struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	from       string
	baseURL    string
}

// NewTwilioClient returns a client for the given account. baseURL overrides
// the Twilio API host; pass "" for production.
func NewTwilioClient(accountSID, authToken, from, baseURL string) *TwilioClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &TwilioClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Send delivers body to the phone number. The number must already be in
// canonical "+<country><digits>" form.
func (c *TwilioClient) Send(ctx context.Context, phone, body string) error {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Twilio error bodies carry account details; log-safe summary only.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("sms: twilio responded %d", resp.StatusCode)
	}
	return nil
}
