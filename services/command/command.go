package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/darkkaiser/rss-feed-notifier/metrics"
	"github.com/darkkaiser/rss-feed-notifier/model"
	"github.com/darkkaiser/rss-feed-notifier/utils"
	log "github.com/sirupsen/logrus"
)

const (
	VerbList   = "一覧"
	VerbAdd    = "追加"
	VerbDelete = "削除"
	VerbNotify = "通知"
	VerbHelp   = "ヘルプ"
)

const HelpMessage = `📚 RSS LINE Notifier ヘルプ

🔧 利用可能なコマンド:

📋 一覧
登録済みRSSフィードを表示

➕ 追加 <URL>
RSSフィードを新規登録
例: 追加 https://example.com/feed

➖ 削除 <番号>
指定番号のフィードを削除
例: 削除 1

🔔 通知
手動で通知を実行

❓ ヘルプ
このヘルプを表示

⏰ 自動通知時間: 毎日12:30、21:00

💡 使い方のコツ:
• 信頼できるRSSフィードのみを追加
• 不要なフィードは定期的に削除
• 問題があれば「通知」で手動実行`

const (
	emptyListMessage     = "📋 登録されているRSSフィードはありません。\n\n「追加 <URL>」で新しいフィードを登録できます。"
	addUsageMessage      = "❌ URLを指定してください。\n\n例: 追加 https://example.com/feed.xml"
	invalidURLMessage    = "❌ 無効なURLです。\n\nhttp:// または https:// で始まる有効なURLを指定してください。"
	notAFeedMessage      = "❌ RSSフィードの取得に失敗しました。\n\nURLが正しいか、フィードが有効か確認してください。"
	duplicateFeedMessage = "⚠️ このフィードは既に登録されています。"
	tooManyFeedsMessage  = "❌ 登録できるフィードの上限に達しています。\n\n不要なフィードを削除してから追加してください。"
	deleteUsageMessage   = "❌ 削除する番号を指定してください。\n\n例: 削除 1\n\n「一覧」コマンドで番号を確認できます。"
	invalidIndexMessage  = "❌ 無効な番号です。数字を指定してください。"
	notifyStartedMessage = "🔔 通知処理を開始しました"
	notifyRunningMessage = "⏳ 通知処理を実行中です"
)

type CommandErrorReason int

const (
	EmptyCommand CommandErrorReason = iota
	CommandTooLong
)

// CommandError 해석할 수 없는 명령
type CommandError struct {
	Reason CommandErrorReason
	Length int
	Max    int
}

func (e *CommandError) Error() string {
	if e.Reason == CommandTooLong {
		return fmt.Sprintf("command too long: %d > %d", e.Length, e.Max)
	}
	return "empty command"
}

// Command 명령어와 인자
type Command struct {
	Verb string
	Args []string
}

// Parse 명령 문자열을 명령어와 인자로 나눈다. 길이가 maxLength(문자 수)를 넘으면 나누기 전에 거부한다.
func Parse(text string, maxLength int) (*Command, error) {
	text = strings.TrimSpace(text)

	if length := utf8.RuneCountInString(text); maxLength > 0 && length > maxLength {
		return nil, &CommandError{Reason: CommandTooLong, Length: length, Max: maxLength}
	}

	verb, args := utils.SplitFields(text)
	if verb == "" {
		return nil, &CommandError{Reason: EmptyCommand}
	}

	return &Command{Verb: verb, Args: args}, nil
}

// FeedRegistry 명령으로 변경되는 피드 목록
type FeedRegistry interface {
	List(ctx context.Context) ([]*model.Feed, error)
	Add(ctx context.Context, rawURL string) (*model.Feed, int, error)
	Remove(ctx context.Context, index int) (*model.Feed, int, error)
}

// Trigger 알림 작업을 비동기로 실행한다. 이미 실행중이면 false를 반환한다.
type Trigger interface {
	Trigger(callerID string) bool
}

//
// Dispatcher
//
type Dispatcher struct {
	feeds   FeedRegistry
	trigger Trigger

	maxCommandLength int
}

func NewDispatcher(feeds FeedRegistry, trigger Trigger, maxCommandLength int) *Dispatcher {
	return &Dispatcher{
		feeds:   feeds,
		trigger: trigger,

		maxCommandLength: maxCommandLength,
	}
}

// Dispatch 명령을 실행하고 사용자에게 보낼 응답을 반환한다. 어떤 경우에도 응답을 반환하며 패닉을 전파하지 않는다.
func (d *Dispatcher) Dispatch(ctx context.Context, text, callerID string) (response string) {
	logger := log.WithField("caller_id", callerID)

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("명령을 처리하는 중에 패닉이 발생하였습니다. (panic:%v)", r)

			response = fmt.Sprintf("❌ コマンド処理中にエラーが発生しました: %v", r)
		}
	}()

	cmd, err := Parse(text, d.maxCommandLength)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) == true && cmdErr.Reason == CommandTooLong {
			logger.Warnf("명령이 너무 깁니다. (length:%d)", cmdErr.Length)

			metrics.Commands.WithLabelValues("too_long").Inc()

			return fmt.Sprintf("❌ コマンドが長すぎます（最大%s文字）", utils.FormatCommas(cmdErr.Max))
		}

		metrics.Commands.WithLabelValues("empty").Inc()

		return HelpMessage
	}

	logger.WithFields(log.Fields{
		"command": cmd.Verb,
		"args":    cmd.Args,
	}).Info("명령을 수신하였습니다.")

	switch cmd.Verb {
	case VerbList:
		response, err = d.list(ctx)
	case VerbAdd:
		response, err = d.add(ctx, cmd.Args)
	case VerbDelete:
		response, err = d.remove(ctx, cmd.Args)
	case VerbNotify:
		response = d.notify(callerID)
	case VerbHelp:
		response = HelpMessage
	default:
		metrics.Commands.WithLabelValues("unknown").Inc()

		return fmt.Sprintf("❓ 不明なコマンドです: %s\n\n「ヘルプ」と送信してコマンド一覧を確認してください。", cmd.Verb)
	}

	metrics.Commands.WithLabelValues(cmd.Verb).Inc()

	if err != nil {
		logger.WithField("command", cmd.Verb).Errorf("명령을 처리하는 중에 오류가 발생하였습니다. (error:%s)", err)

		return fmt.Sprintf("❌ コマンド処理中にエラーが発生しました: %s", err)
	}

	return response
}

func (d *Dispatcher) list(ctx context.Context) (string, error) {
	feedList, err := d.feeds.List(ctx)
	if err != nil {
		return "", err
	}

	if len(feedList) == 0 {
		return emptyListMessage, nil
	}

	var sb strings.Builder
	sb.WriteString("📋 登録済みRSSフィード一覧:\n\n")
	for i, f := range feedList {
		status := "✅"
		if f.Enabled == false {
			status = "❌"
		}

		sb.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, status, f.Title))
		sb.WriteString(fmt.Sprintf("   📂 %s\n\n", f.Category))
	}
	sb.WriteString("🔧 コマンド:\n")
	sb.WriteString("• 追加 <URL> - フィード追加\n")
	sb.WriteString("• 削除 <番号> - フィード削除\n")
	sb.WriteString("• 通知 - 手動通知実行")

	return sb.String(), nil
}

func (d *Dispatcher) add(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return addUsageMessage, nil
	}

	feed, count, err := d.feeds.Add(ctx, args[0])
	if err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) == true {
			switch validationErr.Reason {
			case model.InvalidURL:
				return invalidURLMessage, nil
			case model.DuplicateFeed:
				return duplicateFeedMessage, nil
			case model.NotAFeed:
				return notAFeedMessage, nil
			case model.TooManyFeeds:
				return tooManyFeedsMessage, nil
			}
		}
		return "", err
	}

	return fmt.Sprintf("✅ RSSフィードを追加しました:\n\n📰 %s\n📂 カテゴリ: %s\n\n現在の登録フィード数: %s", feed.Title, feed.Category, utils.FormatCommas(count)), nil
}

func (d *Dispatcher) remove(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return deleteUsageMessage, nil
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		return invalidIndexMessage, nil
	}

	feed, count, err := d.feeds.Remove(ctx, index)
	if err != nil {
		var notFoundErr *model.NotFoundError
		if errors.As(err, &notFoundErr) == true {
			return fmt.Sprintf("❌ 番号%dのフィードは存在しません。\n\n「一覧」コマンドで確認してください。", index), nil
		}
		return "", err
	}

	return fmt.Sprintf("✅ RSSフィードを削除しました:\n\n📰 %s\n\n残りフィード数: %s", feed.Title, utils.FormatCommas(count)), nil
}

func (d *Dispatcher) notify(callerID string) string {
	if d.trigger.Trigger(callerID) == false {
		return notifyRunningMessage
	}
	return notifyStartedMessage
}
