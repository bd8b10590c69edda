package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const defaultSMSCURL = "https://smsc.ru/sys/send.php"

type SMSCClient struct {
	Login    string
	Password string
	Sender   string // опционально
	BaseURL  string
	DryRun   bool // dry-run режим: без HTTP-запроса
	client   *http.Client
}

// ответ smsc.ru при fmt=3; поле error — признак отказа
type smscResponse struct {
	ID        int64  `json:"id"`
	Cnt       int    `json:"cnt"`
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

func NewSMSCClient(login, password, sender string, dryRun bool) *SMSCClient {
	return &SMSCClient{
		Login:    login,
		Password: password,
		Sender:   sender,
		BaseURL:  defaultSMSCURL,
		DryRun:   dryRun,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send — синхронная отправка через smsc.ru. Любой сетевой сбой, не-200 статус,
// кривой JSON или поле error в ответе — транспортная ошибка. Формат номера
// проверяет вызывающий, сюда приходит уже нормализованный.
func (c *SMSCClient) Send(phone, message string) error {
	if c.DryRun || c.Login == "" {
		log.Printf("[smsc][dry-run] to=%s text=%q", phone, message)
		return nil
	}

	form := url.Values{
		"login":   {c.Login},
		"psw":     {c.Password},
		"phones":  {phone},
		"mes":     {message},
		"fmt":     {"3"}, // JSON-ответ
		"charset": {"utf-8"},
	}
	if c.Sender != "" {
		form.Set("sender", c.Sender)
	}

	req, err := http.NewRequest(http.MethodGet, c.BaseURL+"?"+form.Encode(), nil)
	if err != nil {
		return fmt.Errorf("smsc build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("smsc request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("smsc read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("smsc status %d: %s", resp.StatusCode, string(body))
	}

	var result smscResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("smsc parse response: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("smsc error %d: %s", result.ErrorCode, result.Error)
	}

	log.Printf("[smsc][send] ok: to=%s id=%d cnt=%d", phone, result.ID, result.Cnt)
	return nil
}
