package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/g"
	"github.com/darkkaiser/rss-feed-notifier/model"
	"github.com/darkkaiser/rss-feed-notifier/notifyapi"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// 알림 이력 RSS 피드에 포함되는 최대 항목 수
const historyFeedMaxItemCount = 50

const (
	notifyStartedMessage = "🔔 通知処理を開始しました"
	notifyRunningMessage = "⏳ 通知処理を実行中です"
)

// Dispatcher 채팅 명령을 실행한다.
type Dispatcher interface {
	Dispatch(ctx context.Context, text, callerID string) string
}

// Trigger 알림 작업을 비동기로 실행한다.
type Trigger interface {
	Trigger(callerID string) bool
}

// HistoryReader 최근 알림 이력을 반환한다.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]*model.HistoryEntry, error)
}

type CommandRequest struct {
	CommandText string `json:"commandText" validate:"required"`
	CallerID    string `json:"callerId"`
}

type NotifyRequest struct {
	CallerID string `json:"callerId"`
}

type Response struct {
	Response string `json:"response"`
}

//
// Handler
//
type Handler struct {
	dispatcher Dispatcher
	trigger    Trigger
	history    HistoryReader
}

func New(dispatcher Dispatcher, trigger Trigger, history HistoryReader) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		trigger:    trigger,
		history:    history,
	}
}

// PostCommandHandler
// @Summary 채팅 명령 실행
// @Tags command
// @Accept json
// @Produce json
// @Param request body CommandRequest true "명령"
// @Success 200 {object} Response
// @Failure 400
// @Router /api/v1/commands [post]
func (h *Handler) PostCommandHandler(c echo.Context) error {
	req := new(CommandRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "요청 본문을 해석할 수 없습니다.")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "commandText가 비어있습니다.")
	}

	return c.JSON(http.StatusOK, &Response{
		Response: h.dispatcher.Dispatch(c.Request().Context(), req.CommandText, req.CallerID),
	})
}

// PostNotifyHandler
// @Summary 수동 알림 실행
// @Tags notify
// @Accept json
// @Produce json
// @Param request body NotifyRequest false "요청자"
// @Success 202 {object} Response
// @Failure 409 {object} Response
// @Router /api/v1/notify [post]
func (h *Handler) PostNotifyHandler(c echo.Context) error {
	req := new(NotifyRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "요청 본문을 해석할 수 없습니다.")
	}

	if h.trigger.Trigger(req.CallerID) == false {
		return c.JSON(http.StatusConflict, &Response{Response: notifyRunningMessage})
	}

	return c.JSON(http.StatusAccepted, &Response{Response: notifyStartedMessage})
}

// GetHistoryFeedHandler
// @Summary 알림 이력 RSS 피드
// @Tags history
// @Produce xml
// @Success 200
// @Router /history/feed.xml [get]
func (h *Handler) GetHistoryFeedHandler(c echo.Context) error {
	entries, err := h.history.Recent(c.Request().Context(), historyFeedMaxItemCount)
	if err != nil {
		m := "알림 이력을 읽어오는 중에 오류가 발생하였습니다."

		log.Errorf("%s (error:%s)", m, err)

		notifyapi.Send(fmt.Sprintf("%s\r\n\r\n%s", m, err), true)

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	serviceUrl := fmt.Sprintf("%s://%s", c.Scheme(), c.Request().Host)

	rssFeed := &feeds.Feed{
		Title:       "RSS通知 - 通知履歴",
		Link:        &feeds.Link{Href: serviceUrl + c.Request().URL.Path},
		Description: "LINEに通知された記事の一覧",
		Author:      &feeds.Author{Name: g.AppName},
		Created:     time.Now(),
	}

	// 가장 최근에 알림이 발송된 시간을 구한다.
	if len(entries) > 0 {
		rssFeed.Updated = entries[0].NotifiedAt
	}

	for _, e := range entries {
		item := &feeds.Item{
			Id:          e.ID,
			Title:       e.Title,
			Link:        &feeds.Link{Href: e.Link},
			Description: fmt.Sprintf("%s · %s · %s", e.FeedTitle, e.Category, e.Metadata.ArticleType),
			Created:     e.NotifiedAt,
		}
		if e.PublishedAt != nil {
			item.Created = *e.PublishedAt
			item.Updated = e.NotifiedAt
		}

		rssFeed.Items = append(rssFeed.Items, item)
	}

	rss, err := rssFeed.ToRss()
	if err != nil {
		m := "알림 이력을 RSS Feed로 변환하는 중에 오류가 발생하였습니다."

		log.Errorf("%s (error:%s)", m, err)

		notifyapi.Send(fmt.Sprintf("%s\r\n\r\n%s", m, err), true)

		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.Blob(http.StatusOK, "application/rss+xml; charset=UTF-8", []byte(rss))
}

//
// RequestValidator
//
type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validator: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}
