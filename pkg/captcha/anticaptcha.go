package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pdharvest/pkg/config"
	"pdharvest/pkg/errors"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/retry"
)

const recaptchaTaskType = "RecaptchaV2TaskProxyless"

// AntiCaptcha solves reCAPTCHA v2 challenges through the anti-captcha.com API
type AntiCaptcha struct {
	httpClient   *http.Client
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	logger       logger.Logger
}

type createTaskRequest struct {
	ClientKey string        `json:"clientKey"`
	Task      recaptchaTask `json:"task"`
}

type recaptchaTask struct {
	Type       string `json:"type"`
	WebsiteURL string `json:"websiteURL"`
	WebsiteKey string `json:"websiteKey"`
}

type taskResultRequest struct {
	ClientKey string `json:"clientKey"`
	TaskID    int64  `json:"taskId"`
}

type apiResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
	TaskID           int64  `json:"taskId"`
	Status           string `json:"status"`
	Solution         struct {
		GRecaptchaResponse string `json:"gRecaptchaResponse"`
	} `json:"solution"`
}

// NewAntiCaptcha creates an anti-captcha.com solver
func NewAntiCaptcha(cfg config.CaptchaConfig, log logger.Logger) *AntiCaptcha {
	if log == nil {
		log = logger.NewNopLogger()
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &AntiCaptcha{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		pollInterval: poll,
		logger:       log.WithField("component", "captcha"),
	}
}

// Solve creates a task and polls until a worker returns a token
func (a *AntiCaptcha) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	created, err := a.call(ctx, "createTask", createTaskRequest{
		ClientKey: a.apiKey,
		Task: recaptchaTask{
			Type:       recaptchaTaskType,
			WebsiteURL: pageURL,
			WebsiteKey: siteKey,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create captcha task: %w", err)
	}

	a.logger.InfoWithFields("captcha task created", map[string]interface{}{
		"task_id": created.TaskID,
	})

	for {
		if err := retry.Wait(ctx, a.pollInterval); err != nil {
			return "", err
		}

		result, err := a.call(ctx, "getTaskResult", taskResultRequest{
			ClientKey: a.apiKey,
			TaskID:    created.TaskID,
		})
		if err != nil {
			return "", fmt.Errorf("failed to poll captcha task: %w", err)
		}

		if result.Status == "ready" {
			if result.Solution.GRecaptchaResponse == "" {
				return "", errors.New(errors.ErrorTypeParsing, 0, "captcha solution is empty")
			}
			a.logger.Debug("captcha solved")
			return result.Solution.GRecaptchaResponse, nil
		}
	}
}

func (a *AntiCaptcha) call(ctx context.Context, method string, payload interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, 0, "captcha service unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read captcha response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.FromStatus(resp.StatusCode), resp.StatusCode, fmt.Sprintf("captcha service returned %s", resp.Status))
	}

	var out apiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse captcha response", err)
	}
	if out.ErrorID != 0 {
		return nil, errors.New(errors.ErrorTypeAuth, out.ErrorID, fmt.Sprintf("%s: %s", out.ErrorCode, out.ErrorDescription))
	}
	return &out, nil
}
