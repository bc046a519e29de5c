package g

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	AppName    string = "rss-feed-notifier"
	AppVersion string = "1.0.0"

	AppConfigFileName = AppName + ".json"

	// 환경변수로 설정값을 덮어쓸 때 사용하는 접두어(예: RSS_NOTIFIER_FETCH__WORKERS=5)
	EnvPrefix = "RSS_NOTIFIER_"
)

type AppConfig struct {
	Debug bool `koanf:"debug"`

	Log struct {
		Dir           string `koanf:"dir" validate:"required"`
		RetentionDays int    `koanf:"retention_days" validate:"gt=0"`
	} `koanf:"log"`

	Notifier struct {
		Schedules           []string `koanf:"schedules" validate:"required,min=1,dive,required"`
		Timezone            string   `koanf:"timezone" validate:"required"`
		ArticleAgeHours     int      `koanf:"article_age_hours" validate:"gt=0"`
		MaxHistorySize      int      `koanf:"max_history_size" validate:"gt=0"`
		CleanupDays         int      `koanf:"cleanup_days" validate:"gt=0"`
		MaxCarouselItems    int      `koanf:"max_carousel_items" validate:"gt=0,lte=12"`
		MaxArticlesPerGroup int      `koanf:"max_articles_per_group" validate:"gt=0"`
		WordsPerMinute      int      `koanf:"words_per_minute" validate:"gt=0"`
	} `koanf:"notifier"`

	Fetch struct {
		Workers           int           `koanf:"workers" validate:"gt=0"`
		RequestTimeout    time.Duration `koanf:"request_timeout" validate:"gt=0"`
		MaxRetries        int           `koanf:"max_retries" validate:"gt=0"`
		BaseDelay         time.Duration `koanf:"base_delay" validate:"gte=0"`
		BackoffMultiplier float64       `koanf:"backoff_multiplier" validate:"gte=1"`
		UserAgent         string        `koanf:"user_agent" validate:"required"`
	} `koanf:"fetch"`

	Command struct {
		MaxCommandLength int `koanf:"max_command_length" validate:"gt=0"`
	} `koanf:"command"`

	Config struct {
		MaxFeeds int `koanf:"max_feeds" validate:"gt=0"`
	} `koanf:"config"`

	Store struct {
		DatabasePath string `koanf:"database_path" validate:"required"`
	} `koanf:"store"`

	WS struct {
		TLSServer   bool    `koanf:"tls_server"`
		TLSCertFile string  `koanf:"tls_cert_file" validate:"required_if=TLSServer true"`
		TLSKeyFile  string  `koanf:"tls_key_file" validate:"required_if=TLSServer true"`
		ListenPort  int     `koanf:"listen_port" validate:"gt=0,lt=65536"`
		RateLimit   float64 `koanf:"rate_limit" validate:"gt=0"`
	} `koanf:"ws"`

	Line struct {
		APIUrl             string  `koanf:"api_url" validate:"required,http_url"`
		ChannelAccessToken string  `koanf:"channel_access_token" validate:"required"`
		UserID             string  `koanf:"user_id" validate:"required"`
		PushPerSecond      float64 `koanf:"push_per_second" validate:"gt=0"`
	} `koanf:"line"`

	NotifyAPI struct {
		Url           string `koanf:"url" validate:"required,http_url"`
		APIKey        string `koanf:"api_key" validate:"required"`
		ApplicationID string `koanf:"application_id" validate:"required"`
	} `koanf:"notify_api"`
}

// DefaultAppConfig 설정파일에 값이 없을 때 사용되는 기본값을 반환한다.
func DefaultAppConfig() *AppConfig {
	c := &AppConfig{}

	c.Log.Dir = "./logs"
	c.Log.RetentionDays = 30

	c.Notifier.Schedules = []string{"30 12 * * *", "0 21 * * *"}
	c.Notifier.Timezone = "Asia/Tokyo"
	c.Notifier.ArticleAgeHours = 24
	c.Notifier.MaxHistorySize = 1000
	c.Notifier.CleanupDays = 30
	c.Notifier.MaxCarouselItems = 10
	c.Notifier.MaxArticlesPerGroup = 5
	c.Notifier.WordsPerMinute = 400

	c.Fetch.Workers = 10
	c.Fetch.RequestTimeout = 30 * time.Second
	c.Fetch.MaxRetries = 3
	c.Fetch.BaseDelay = 5 * time.Second
	c.Fetch.BackoffMultiplier = 2.0
	c.Fetch.UserAgent = fmt.Sprintf("%s/%s", AppName, AppVersion)

	c.Command.MaxCommandLength = 1000

	c.Config.MaxFeeds = 100

	c.Store.DatabasePath = fmt.Sprintf("./%s.db", AppName)

	c.WS.ListenPort = 8080
	c.WS.RateLimit = 10

	c.Line.APIUrl = "https://api.line.me/v2/bot"
	c.Line.PushPerSecond = 5

	return c
}

// InitAppConfig 설정파일과 환경변수를 읽어들여 AppConfig를 생성한다.
// 설정값이 유효하지 않으면 패닉이 발생한다.
func InitAppConfig(path string) *AppConfig {
	config, err := LoadAppConfig(path)
	if err != nil {
		log.Panicf("%s 파일을 읽어들이는 중에 오류가 발생하였습니다. (error:%s)", AppConfigFileName, err)
	}

	config.validation()

	return config
}

// LoadAppConfig 기본값, 설정파일, 환경변수 순서로 값을 병합한다.
// path가 빈 문자열이면 설정파일은 읽지 않는다.
func LoadAppConfig(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultAppConfig(), "koanf"), nil); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return nil, err
		}
	}

	// RSS_NOTIFIER_FETCH__MAX_RETRIES => fetch.max_retries
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var config AppConfig
	err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			Result:           &config,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *AppConfig) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Notifier.Timezone); err != nil {
		return fmt.Errorf("timezone('%s')이 유효하지 않습니다: %w", c.Notifier.Timezone, err)
	}

	return nil
}

func (c *AppConfig) validation() {
	if err := c.Validate(); err != nil {
		log.Panicf("%s 파일의 내용이 유효하지 않습니다. %s", AppConfigFileName, err)
	}
}

// Location 알림 스케쥴러가 사용하는 타임존을 반환한다.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Notifier.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
