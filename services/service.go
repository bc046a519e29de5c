package services

import (
	"context"
	"sync"
)

// Service 서비스는 Run이 호출되면 시작되고, serviceStopCtx가 취소되면 중지된 후 serviceStopWaiter.Done()을 호출한다.
type Service interface {
	Run(serviceStopCtx context.Context, serviceStopWaiter *sync.WaitGroup)
}
