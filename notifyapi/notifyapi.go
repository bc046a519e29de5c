package notifyapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// 운영자에게 장애 상황을 알리기 위한 NotifyAPI 클라이언트
// 사용자에게 발송되는 기사 알림과는 별개로, 스케쥴 실행의 실패나 이력 저장 실패 같은 진단 신호를 전달한다.

type Config struct {
	Url           string
	APIKey        string
	ApplicationID string

	valid bool
}

var (
	config   = &Config{}
	configMu sync.RWMutex

	httpClient = &http.Client{Timeout: 10 * time.Second}
)

type notifyMessage struct {
	ApplicationID string `json:"application_id"`
	Message       string `json:"message"`
	ErrorOccurred bool   `json:"error_occurred"`
}

func (c *Config) validation() bool {
	c.valid = false

	u, err := url.Parse(strings.TrimSpace(c.Url))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.ApplicationID) == "" {
		return false
	}

	c.valid = true

	return true
}

func Init(c *Config) {
	configMu.Lock()
	defer configMu.Unlock()

	config = c
	if config.validation() == false {
		log.Warn("NotifyAPI 설정값이 유효하지 않아 알림 메시지가 발송되지 않습니다.")
	}
}

// Send 운영자에게 메시지를 발송한다. 발송에 성공하면 true를 반환한다.
func Send(message string, errorOccurred bool) bool {
	configMu.RLock()
	c := config
	configMu.RUnlock()

	if c.valid == false {
		return false
	}
	if strings.TrimSpace(message) == "" {
		return false
	}

	jsonBytes, err := json.Marshal(notifyMessage{
		ApplicationID: c.ApplicationID,
		Message:       message,
		ErrorOccurred: errorOccurred,
	})
	if err != nil {
		log.Errorf("NotifyAPI 서비스 호출이 실패하였습니다. (error:%s)", err)
		return false
	}

	req, err := http.NewRequest(http.MethodPost, c.Url, bytes.NewReader(jsonBytes))
	if err != nil {
		log.Errorf("NotifyAPI 서비스 호출이 실패하였습니다. (error:%s)", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Cache-Control", "no-cache")

	res, err := httpClient.Do(req)
	if err != nil {
		log.Errorf("NotifyAPI 서비스 호출이 실패하였습니다. (error:%s)", err)
		return false
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Errorf("NotifyAPI 서비스 호출이 실패하였습니다. (HTTP 상태코드:%d)", res.StatusCode)
		return false
	}

	return true
}
