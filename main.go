package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/analyzer"
	"github.com/darkkaiser/rss-feed-notifier/db"
	"github.com/darkkaiser/rss-feed-notifier/feeds"
	"github.com/darkkaiser/rss-feed-notifier/g"
	"github.com/darkkaiser/rss-feed-notifier/line"
	_log_ "github.com/darkkaiser/rss-feed-notifier/log"
	"github.com/darkkaiser/rss-feed-notifier/message"
	"github.com/darkkaiser/rss-feed-notifier/model"
	"github.com/darkkaiser/rss-feed-notifier/notifyapi"
	"github.com/darkkaiser/rss-feed-notifier/services"
	"github.com/darkkaiser/rss-feed-notifier/services/command"
	"github.com/darkkaiser/rss-feed-notifier/services/notifier"
	"github.com/darkkaiser/rss-feed-notifier/services/ws"
	"github.com/darkkaiser/rss-feed-notifier/services/ws/handler"
	"github.com/darkkaiser/rss-feed-notifier/store"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	banner = `
  ____   ____   ____    _   _       _   _  __ _
 |  _ \ / ___| / ___|  | \ | | ___ | |_(_)/ _(_) ___ _ __
 | |_) |\___ \ \___ \  |  \| |/ _ \| __| | |_| |/ _ \ '__|
 |  _ <  ___) | ___) | | |\  | (_) | |_| |  _| |  __/ |
 |_| \_\|____/ |____/  |_| \_|\___/ \__|_|_| |_|\___|_|   v%s
                                                   developed by DarkKaiser
---------------------------------------------------------------------------
`
)

func main() {
	app := &cli.App{
		Name:    g.AppName,
		Usage:   "RSS/Atom 피드의 새 기사를 LINE으로 알린다.",
		Version: g.AppVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   g.AppConfigFileName,
				Usage:   "설정파일 경로",
				EnvVars: []string{g.EnvPrefix + "CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			notifyCmd(),
			execCmd(),
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "웹 서비스와 알림 스케쥴러를 실행한다.",
		Action: serve,
	}
}

func notifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "notify",
		Usage: "알림 작업을 한 번 실행하고 종료한다.",
		Action: func(c *cli.Context) error {
			a := newApp(c.String("config"))
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result := a.pipeline.Run(ctx)

			fmt.Printf("batch_id=%s status=%s notified=%d\n", result.BatchID, result.Status, result.Notified)

			if result.Status == notifier.StatusFailed || result.Status == notifier.StatusHistoryNotUpdated {
				return cli.Exit(fmt.Sprintf("알림 작업이 실패하였습니다. (error:%s)", result.Err), 1)
			}

			return nil
		},
	}
}

func execCmd() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "채팅 명령 하나를 실행하고 응답을 출력한다.",
		ArgsUsage: "<명령>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "caller",
				Usage: "명령을 요청한 사용자 ID",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return cli.Exit("실행할 명령을 입력하세요.", 1)
			}

			a := newApp(c.String("config"))
			defer a.Close()

			text := strings.Join(c.Args().Slice(), " ")

			fmt.Println(a.dispatcher.Dispatch(context.Background(), text, c.String("caller")))

			// 수동 실행된 알림 작업이 끝날 때까지 기다린다.
			a.notifierService.Wait()

			return nil
		},
	}
}

func serve(c *cli.Context) error {
	a := newApp(c.String("config"))
	defer a.Close()

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	fmt.Printf(banner, g.AppVersion)

	// Set up cancellation context and waitgroup
	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWaiter := &sync.WaitGroup{}

	// 서비스를 시작한다.
	for _, s := range []services.Service{a.webService, a.notifierService} {
		serviceStopWaiter.Add(1)
		s.Run(serviceStopCtx, serviceStopWaiter)
	}

	// Handle sigterm and await termC signal
	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	<-termC // Blocks here until interrupted

	// Handle shutdown
	log.Info("Shutdown signal received")
	cancel()                 // Signal cancellation to context.Context
	serviceStopWaiter.Wait() // Block here until are workers are done

	return nil
}

//
// app
//
type app struct {
	db *sql.DB

	logCloser io.Closer

	pipeline        *notifier.Pipeline
	notifierService *notifier.Service
	dispatcher      *command.Dispatcher
	webService      *ws.Service
}

func newApp(configPath string) *app {
	// 환경설정 정보를 읽어들인다.
	config := g.InitAppConfig(configPath)

	// 로그를 초기화하고, 일정 시간이 지난 로그 파일을 모두 삭제한다.
	a := &app{
		logCloser: _log_.Init(_log_.Options{
			Debug:         config.Debug,
			AppName:       g.AppName,
			Dir:           config.Log.Dir,
			RetentionDays: float64(config.Log.RetentionDays),
		}),
	}

	// NotifyAPI를 초기화한다.
	notifyapi.Init(&notifyapi.Config{
		Url:           config.NotifyAPI.Url,
		APIKey:        config.NotifyAPI.APIKey,
		ApplicationID: config.NotifyAPI.ApplicationID,
	})

	// 데이터베이스를 초기화한다.
	a.db = db.New(config.Store.DatabasePath)

	objectStore, err := store.NewSQLiteStore(a.db)
	if err != nil {
		m := "오브젝트 저장소를 초기화하는 중에 치명적인 오류가 발생하였습니다."

		notifyapi.Send(fmt.Sprintf("%s\r\n\r\n%s", m, err), true)

		log.Panicf("%s (error:%s)", m, err)
	}

	fetcher := feeds.NewClient(config.Fetch.UserAgent)

	feedStore := model.NewFeedStore(objectStore, fetcher, config.Fetch.RequestTimeout, config.Config.MaxFeeds)
	historyStore := model.NewHistoryStore(objectStore, config.Notifier.MaxHistorySize, config.Notifier.CleanupDays)

	lineClient := line.NewClient(line.Config{
		APIUrl:             config.Line.APIUrl,
		ChannelAccessToken: config.Line.ChannelAccessToken,
		UserID:             config.Line.UserID,
		PushPerSecond:      config.Line.PushPerSecond,
	})

	coordinator := notifier.NewCoordinator(fetcher, config.Fetch.Workers, config.Fetch.RequestTimeout, notifier.RetryPolicy{
		MaxRetries: config.Fetch.MaxRetries,
		BaseDelay:  config.Fetch.BaseDelay,
		Multiplier: config.Fetch.BackoffMultiplier,
	})

	a.pipeline = notifier.NewPipeline(
		feedStore,
		historyStore,
		coordinator,
		analyzer.New(config.Notifier.WordsPerMinute),
		message.NewBuilder(config.Notifier.MaxCarouselItems, config.Notifier.MaxArticlesPerGroup),
		lineClient,
		time.Duration(config.Notifier.ArticleAgeHours)*time.Hour,
	)

	// 서비스를 생성하고 초기화한다.
	a.notifierService = notifier.NewService(config.Notifier.Schedules, config.Location(), a.pipeline, lineClient)
	a.dispatcher = command.NewDispatcher(feedStore, a.notifierService, config.Command.MaxCommandLength)
	a.webService = ws.NewService(config, handler.New(a.dispatcher, a.notifierService, historyStore))

	return a
}

func (a *app) Close() {
	db.Close(a.db)

	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
