package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/notifyapi"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	NoNewArticlesMessage = "📭 現在、新着記事はありません。\n\n定期通知で最新情報をお届けします。"
	RunFailedMessage     = "❌ 通知処理中にエラーが発生しました。"
)

// Runner 알림 작업 한 번을 실행한다.
type Runner interface {
	Run(ctx context.Context) *RunResult
}

//
// Service
//
type Service struct {
	schedules []string
	location  *time.Location

	cron *cron.Cron

	runner    Runner
	deliverer Deliverer

	// 알림 작업은 한 번에 하나만 실행된다.
	runMu sync.Mutex

	// 수동 실행된 알림 작업들은 서비스가 중지될 때까지 완료되어야 한다.
	triggerCtx    context.Context
	triggerWaiter sync.WaitGroup

	running   bool
	runningMu sync.Mutex
}

func NewService(schedules []string, location *time.Location, runner Runner, deliverer Deliverer) *Service {
	if location == nil {
		location = time.Local
	}

	return &Service{
		schedules: schedules,
		location:  location,

		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cron.VerbosePrintfLogger(log.StandardLogger())),
		),

		runner:    runner,
		deliverer: deliverer,

		triggerCtx: context.Background(),

		running:   false,
		runningMu: sync.Mutex{},
	}
}

func (s *Service) Run(serviceStopCtx context.Context, serviceStopWaiter *sync.WaitGroup) {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	log.Debug("알림 서비스 시작중...")

	if s.running == true {
		defer serviceStopWaiter.Done()

		log.Warn("알림 서비스가 이미 시작됨!!!")

		return
	}

	// 알림 스케쥴러를 시작한다.
	for _, schedule := range s.schedules {
		if _, err := s.cron.AddFunc(schedule, func() { s.runScheduled(serviceStopCtx) }); err != nil {
			m := fmt.Sprintf("알림 작업('%s')의 스케쥴러 등록이 실패하였습니다. (error:%s)", schedule, err)

			notifyapi.Send(m, true)

			log.Panic(m)
		}
	}

	s.cron.Start()

	s.triggerCtx = serviceStopCtx

	go s.run0(serviceStopCtx, serviceStopWaiter)

	s.running = true

	log.Debug("알림 서비스 시작됨")
}

func (s *Service) run0(serviceStopCtx context.Context, serviceStopWaiter *sync.WaitGroup) {
	defer serviceStopWaiter.Done()

	select {
	case <-serviceStopCtx.Done():
		log.Debug("알림 서비스 중지중...")

		s.runningMu.Lock()
		{
			// 알림 스케쥴러를 중지한다.
			ctx := s.cron.Stop()
			<-ctx.Done()

			s.triggerWaiter.Wait()

			s.running = false
		}
		s.runningMu.Unlock()

		log.Debug("알림 서비스 중지됨")
	}
}

func (s *Service) runScheduled(ctx context.Context) {
	if s.runMu.TryLock() == false {
		log.Warn("이전 알림 작업이 아직 실행중이므로 이번 스케쥴은 건너뜁니다.")
		return
	}
	defer s.runMu.Unlock()

	s.runner.Run(ctx)
}

// Trigger 알림 작업을 비동기로 실행한다. 이미 실행중인 알림 작업이 있으면 false를 반환한다.
// 새 기사가 없거나 작업이 실패한 경우 callerID에게 그 결과를 텍스트로 알린다.
func (s *Service) Trigger(callerID string) bool {
	if s.runMu.TryLock() == false {
		return false
	}

	s.runningMu.Lock()
	ctx := s.triggerCtx
	s.triggerWaiter.Add(1)
	s.runningMu.Unlock()

	go func() {
		defer s.triggerWaiter.Done()

		result := func() *RunResult {
			defer s.runMu.Unlock()
			return s.runner.Run(ctx)
		}()

		logger := log.WithFields(log.Fields{
			"batch_id":  result.BatchID,
			"caller_id": callerID,
			"status":    result.Status,
		})
		logger.Info("수동 알림 작업이 완료되었습니다.")

		var reply string
		switch result.Status {
		case StatusNothingToNotify:
			reply = NoNewArticlesMessage
		case StatusFailed:
			reply = RunFailedMessage
		default:
			return
		}

		if err := s.deliverer.SendText(ctx, callerID, reply); err != nil {
			logger.Errorf("수동 알림 작업의 결과를 전달하지 못하였습니다. (error:%s)", err)
		}
	}()

	return true
}

// Wait 수동 실행된 알림 작업이 모두 끝날 때까지 기다린다.
func (s *Service) Wait() {
	s.triggerWaiter.Wait()
}
