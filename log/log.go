package log

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultLogDir    string = "logs"
	logFileExtension string = "log"
)

// Options 운영 모드의 로그 파일 설정
type Options struct {
	Debug   bool
	AppName string

	// 로그 파일이 생성되는 폴더, 빈 문자열이면 ./logs
	Dir string

	// 수정된 지 RetentionDays 일이 지난 로그 파일은 Init에서 삭제된다.
	RetentionDays float64
}

func (o Options) dir() string {
	if o.Dir == "" {
		return defaultLogDir
	}
	return o.Dir
}

func init() {
	log.SetLevel(log.TraceLevel)
	log.SetReportCaller(true)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			const shortPath = "github.com/darkkaiser"

			function = fmt.Sprintf("%s(line:%d)", frame.Function, frame.Line)
			if strings.HasPrefix(function, shortPath) == true {
				function = "..." + function[len(shortPath):]
			}

			return
		},
	})
}

// Init 로그 출력 대상을 설정한다.
// 디버그 모드이면 표준에러로 출력하고, 운영 모드이면 로그 파일을 생성하여 출력한 후
// 보관기간이 지난 로그 파일을 모두 삭제한다.
func Init(o Options) io.Closer {
	if o.Debug == true {
		log.SetLevel(log.TraceLevel)
		return nil
	}

	log.SetLevel(log.InfoLevel)

	// 로그 파일이 쌓이는 폴더를 생성한다.
	if err := os.MkdirAll(o.dir(), 0755); err != nil {
		log.Errorf("로그 폴더를 생성할 수 없습니다. 표준에러로 로그를 출력합니다. (error:%s)", err)
		return nil
	}

	logFilePath := filepath.Join(o.dir(), fmt.Sprintf("%s-%s.%s", o.AppName, time.Now().Format("20060102150405"), logFileExtension))
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Errorf("로그 파일을 생성할 수 없습니다. 표준에러로 로그를 출력합니다. (error:%s)", err)
		return nil
	}

	log.SetOutput(logFile)

	removeExpiredLogFiles(o, logFilePath)

	return logFile
}

// removeExpiredLogFiles 현재 출력중인 로그 파일을 제외하고 보관기간이 지난 로그 파일을 삭제한다.
func removeExpiredLogFiles(o Options, currentPath string) {
	entries, err := os.ReadDir(o.dir())
	if err != nil {
		return
	}

	now := time.Now()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() == true || strings.HasPrefix(name, o.AppName+"-") == false || strings.HasSuffix(name, "."+logFileExtension) == false {
			continue
		}

		path := filepath.Join(o.dir(), name)
		if path == currentPath {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}

		if math.Abs(now.Sub(fi.ModTime()).Hours())/24 < o.RetentionDays {
			continue
		}

		if err = os.Remove(path); err != nil {
			log.Errorf("오래된 로그파일 삭제 실패(%s), %s", path, err)
			continue
		}
		log.Infof("오래된 로그파일 삭제 성공(%s)", path)
	}
}
