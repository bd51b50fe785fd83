package mail

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/hanzel-sc/iwp-placement-portal/backend/config"
)

// ErrQueueFull 队列已满，消息被丢弃
var ErrQueueFull = errors.New("邮件队列已满")

// ErrQueueClosed 队列已关闭
var ErrQueueClosed = errors.New("邮件队列已关闭")

// Message 待发送邮件
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender 邮件发送器
type Sender interface {
	Send(msg Message) error
}

// SMTPSender 基于 gomail 的 SMTP 发送器
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(cfg *config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send 同步发送一封邮件
func (s *SMTPSender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return s.dialer.DialAndSend(m)
}

// Queue 有界异步发送队列
// Enqueue 不阻塞调用方，队列满时直接丢弃
type Queue struct {
	sender  Sender
	logger  *zap.Logger
	ch      chan Message
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue 创建邮件队列
func NewQueue(sender Sender, size, workers int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		sender:  sender,
		logger:  logger,
		ch:      make(chan Message, size),
		workers: workers,
	}
}

// Start 启动发送协程
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for msg := range q.ch {
		if err := q.sender.Send(msg); err != nil {
			q.logger.Warn("邮件发送失败", zap.String("to", msg.To), zap.Error(err))
		}
	}
}

// Enqueue 投递邮件
func (q *Queue) Enqueue(msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		q.logger.Warn("邮件队列已满，丢弃消息", zap.String("to", msg.To))
		return ErrQueueFull
	}
}

// Close 停止接收并等待已入队邮件发送完毕，ctx 超时后放弃等待
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
