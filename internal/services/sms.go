package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService dispatches OTP texts. Three providers are supported:
// "twilio", "http" (a configurable JSON endpoint), and "none". When no
// provider is configured the message is logged to the console instead.
// That is a valid local development mode, never a silent failure.
type SMSService struct {
	provider string

	// twilio
	client *twilio.RestClient
	from   string

	// generic HTTP gateway
	httpURL        string
	httpMethod     string
	httpToField    string
	httpMsgField   string
	httpAuthHeader string
	httpAuthValue  string
	httpExtraJSON  string
	httpClient     *http.Client
}

// NewSMSService creates an SMS service from SMS_* / TWILIO_* environment
// variables
func NewSMSService() *SMSService {
	s := &SMSService{
		provider:       strings.ToLower(os.Getenv("SMS_PROVIDER")),
		httpURL:        os.Getenv("SMS_HTTP_URL"),
		httpMethod:     strings.ToUpper(os.Getenv("SMS_HTTP_METHOD")),
		httpToField:    os.Getenv("SMS_HTTP_TO_FIELD"),
		httpMsgField:   os.Getenv("SMS_HTTP_MSG_FIELD"),
		httpAuthHeader: os.Getenv("SMS_HTTP_AUTH_HEADER"),
		httpAuthValue:  os.Getenv("SMS_HTTP_AUTH_VALUE"),
		httpExtraJSON:  os.Getenv("SMS_HTTP_EXTRA_JSON"),
		// Bounded timeout so a slow gateway cannot stall the worker loop
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if s.provider == "" {
		s.provider = "http"
	}
	if s.httpMethod == "" {
		s.httpMethod = http.MethodPost
	}
	if s.httpToField == "" {
		s.httpToField = "to"
	}
	if s.httpMsgField == "" {
		s.httpMsgField = "message"
	}

	if s.provider == "twilio" {
		accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
		authToken := os.Getenv("TWILIO_AUTH_TOKEN")
		s.from = os.Getenv("TWILIO_PHONE_NUMBER")

		if accountSid == "" || authToken == "" || s.from == "" {
			log.Println("⚠️  Twilio credentials not found - SMS falls back to console")
			s.provider = "none"
		} else {
			s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
				Username: accountSid,
				Password: authToken,
			})
		}
	}

	return s
}

// Send delivers one text message. Returns whether delivery succeeded;
// transport failures are logged, not propagated.
func (s *SMSService) Send(to, message string) bool {
	if to == "" {
		return false
	}

	switch s.provider {
	case "twilio":
		return s.sendTwilio(to, message)
	case "http":
		if s.httpURL == "" {
			log.Printf("[DEV SMS] to=%s msg=%s", to, message)
			return true
		}
		return s.sendHTTP(to, message)
	default:
		log.Printf("[DEV SMS] to=%s msg=%s", to, message)
		return true
	}
}

func (s *SMSService) sendTwilio(to, message string) bool {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(to)
	params.SetBody(message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send SMS via Twilio: %v", err)
		return false
	}

	log.Printf("✅ SMS sent! SID: %s", *resp.Sid)
	return true
}

func (s *SMSService) sendHTTP(to, message string) bool {
	payload := map[string]interface{}{
		s.httpToField:  to,
		s.httpMsgField: message,
	}
	if s.httpExtraJSON != "" {
		var extra map[string]interface{}
		if err := json.Unmarshal([]byte(s.httpExtraJSON), &extra); err == nil {
			for k, v := range extra {
				payload[k] = v
			}
		}
	}

	var req *http.Request
	var err error
	if s.httpMethod == http.MethodGet {
		query := url.Values{}
		for k, v := range payload {
			query.Set(k, fmt.Sprint(v))
		}
		req, err = http.NewRequest(http.MethodGet, s.httpURL+"?"+query.Encode(), nil)
	} else {
		var body []byte
		body, err = json.Marshal(payload)
		if err == nil {
			req, err = http.NewRequest(s.httpMethod, s.httpURL, bytes.NewReader(body))
		}
	}
	if err != nil {
		log.Printf("❌ Failed to build SMS request: %v", err)
		return false
	}

	req.Header.Set("Content-Type", "application/json")
	if s.httpAuthHeader != "" && s.httpAuthValue != "" {
		req.Header.Set(s.httpAuthHeader, s.httpAuthValue)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ SMS send failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("❌ SMS gateway returned %d", resp.StatusCode)
		return false
	}
	return true
}
