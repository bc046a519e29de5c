package router

import (
	"net/http"

	"github.com/darkkaiser/rss-feed-notifier/g"
	"github.com/darkkaiser/rss-feed-notifier/services/ws/docs"
	"github.com/darkkaiser/rss-feed-notifier/services/ws/handler"
	_middleware_ "github.com/darkkaiser/rss-feed-notifier/services/ws/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"
)

func New(config *g.AppConfig, h *handler.Handler) *echo.Echo {
	e := echo.New()

	e.Debug = config.Debug
	e.HideBanner = true
	e.HidePort = true

	// echo에서 출력되는 로그를 Logrus Logger로 출력되도록 한다.
	// echo Logger의 인터페이스를 래핑한 객체를 이용하여 Logrus Logger로 보낸다.
	e.Logger = _middleware_.Logger{Logger: log.StandardLogger()}
	e.Validator = handler.NewRequestValidator()

	e.Use(middleware.RequestID())
	e.Use(_middleware_.LogrusLogger(log.StandardLogger()))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{ // CORS Middleware
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.Use(middleware.Recover()) // Recover from panics anywhere in the chain
	e.Use(middleware.Secure())

	api := e.Group("/api/v1")
	{
		api.Use(middleware.BodyLimit("64K"))
		api.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(config.WS.RateLimit))))

		api.POST("/commands", h.PostCommandHandler)
		api.POST("/notify", h.PostNotifyHandler)
	}

	e.GET("/history/feed.xml", h.GetHistoryFeedHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	docs.SwaggerInfo.Version = g.AppVersion
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
