package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"buswatch-service/internal/domain/repository"
	"buswatch-service/pkg/logger"
)

const (
	telegramScheme      = "telegram:"
	defaultTelegramAPI  = "https://api.telegram.org"
	telegramSendTimeout = 30 * time.Second
)

// TelegramRepository sends notifications through the Telegram Bot API
type TelegramRepository struct {
	logger   logger.Logger
	baseURL  string
	botToken string
	client   *http.Client
}

// NewTelegramRepository creates a new Telegram messenger. The bot token is
// only ever placed in the request path and is never logged.
func NewTelegramRepository(baseURL, botToken string, logger logger.Logger) repository.MessengerRepository {
	if baseURL == "" {
		baseURL = defaultTelegramAPI
	}

	return &TelegramRepository{
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: botToken,
		client:   &http.Client{Timeout: telegramSendTimeout},
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// CanHandle accepts "telegram:<chat>" and bare chat ids such as 6913644510 or @channel.
func (r *TelegramRepository) CanHandle(target string) bool {
	return strings.HasPrefix(target, telegramScheme) || (target != "" && !strings.Contains(target, ":"))
}

// Send posts text to the chat with Markdown parse mode
func (r *TelegramRepository) Send(ctx context.Context, target, text string) error {
	chatID := strings.TrimSpace(strings.TrimPrefix(target, telegramScheme))
	if chatID == "" {
		return fmt.Errorf("empty telegram chat id")
	}

	jsonData, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", r.baseURL, r.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", redactURLError(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	var response telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("telegram returned status %d with unreadable body: %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !response.OK {
		return fmt.Errorf("telegram returned status %d: %s (code: %d)", resp.StatusCode, response.Description, response.ErrorCode)
	}

	r.logger.Info("Telegram message sent",
		"chatId", chatID,
		"messageId", response.Result.MessageID)

	return nil
}

// redactURLError drops the request URL, which carries the bot token, from transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s telegram api: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
