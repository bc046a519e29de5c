package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/g"
	"github.com/darkkaiser/rss-feed-notifier/notifyapi"
	"github.com/darkkaiser/rss-feed-notifier/services/ws/handler"
	"github.com/darkkaiser/rss-feed-notifier/services/ws/router"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

//
// Service
//
type Service struct {
	address string

	tlsServer   bool
	tlsCertFile string
	tlsKeyFile  string

	e *echo.Echo

	// http 서버는 서비스가 중지될 때까지 종료되어야 한다.
	serverWaiter sync.WaitGroup

	running   bool
	runningMu sync.Mutex
}

func NewService(config *g.AppConfig, handler *handler.Handler) *Service {
	return &Service{
		address: fmt.Sprintf(":%d", config.WS.ListenPort),

		tlsServer:   config.WS.TLSServer,
		tlsCertFile: config.WS.TLSCertFile,
		tlsKeyFile:  config.WS.TLSKeyFile,

		e: router.New(config, handler),

		running:   false,
		runningMu: sync.Mutex{},
	}
}

func (s *Service) Run(serviceStopCtx context.Context, serviceStopWaiter *sync.WaitGroup) {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	log.Debug("웹 서비스 시작중...")

	if s.running == true {
		defer serviceStopWaiter.Done()

		log.Warn("웹 서비스가 이미 시작됨!!!")

		return
	}

	// http 서버를 시작한다.
	s.serverWaiter.Add(1)
	go s.listenAndServe()

	go s.run0(serviceStopCtx, serviceStopWaiter)

	s.running = true

	log.Debug("웹 서비스 시작됨")
}

func (s *Service) run0(serviceStopCtx context.Context, serviceStopWaiter *sync.WaitGroup) {
	defer serviceStopWaiter.Done()

	select {
	case <-serviceStopCtx.Done():
		log.Debug("웹 서비스 중지중...")

		s.runningMu.Lock()
		{
			// http 서버를 중지한다.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := s.e.Shutdown(ctx); err != nil {
				s.alert("웹 서비스를 중지하는 중에 오류가 발생하였습니다.", err)
			}
			cancel()

			s.serverWaiter.Wait()

			s.running = false
		}
		s.runningMu.Unlock()

		log.Debug("웹 서비스 중지됨")
	}
}

func (s *Service) listenAndServe() {
	defer s.serverWaiter.Done()

	log.Debugf("웹 서비스 > http 서버 시작 (address:%s, tls:%t)", s.address, s.tlsServer)

	var err error
	if s.tlsServer == true {
		err = s.e.StartTLS(s.address, s.tlsCertFile, s.tlsKeyFile)
	} else {
		err = s.e.Start(s.address)
	}

	if errors.Is(err, http.ErrServerClosed) == true {
		log.Debug("웹 서비스 > http 서버 중지됨")
		return
	}
	if err != nil {
		s.alert("웹 서비스를 구성하는 중에 치명적인 오류가 발생하였습니다.", err)
	}
}

func (s *Service) alert(m string, err error) {
	log.Errorf("%s (error:%s)", m, err)

	notifyapi.Send(fmt.Sprintf("%s\r\n\r\n%s", m, err), true)
}
