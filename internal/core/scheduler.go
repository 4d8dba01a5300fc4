package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/RecoveryAshes/NoteTracker/internal/utils"
)

// Job 定时执行的任务
type Job func(ctx context.Context) error

// Scheduler 基于cron表达式的定时器
// 所有任务串行执行, 同一时刻只有一个浏览器会话
type Scheduler struct {
	cron     *cron.Cron
	parser   cron.Parser
	location *time.Location

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

// cronLogger 将cron内部日志转到zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

// NewScheduler 创建定时器, timezone为空时使用本地时区
func NewScheduler(timezone string) (*Scheduler, error) {
	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("无效的时区 %q: %w", timezone, err)
		}
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	logger := cronLogger{}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return &Scheduler{
		cron:     c,
		parser:   parser,
		location: loc,
		ctx:      context.Background(),
		entries:  make(map[string]cron.EntryID),
	}, nil
}

// Add 注册任务, spec为空时跳过
func (s *Scheduler) Add(name, spec string, job Job) error {
	if spec == "" {
		utils.Debugf("任务 %s 未配置, 跳过", name)
		return nil
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("无效的cron表达式 %s=%q: %w", name, spec, err)
	}

	id, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ctx.Err() != nil {
			return
		}
		utils.Infof("⏰ 开始定时任务: %s", name)
		start := time.Now()
		if err := job(s.ctx); err != nil {
			utils.Errorf("定时任务 %s 失败: %v", name, err)
			return
		}
		utils.Infof("✅ 定时任务 %s 完成, 耗时 %.1f秒", name, time.Since(start).Seconds())
	})
	if err != nil {
		return fmt.Errorf("注册任务 %s 失败: %w", name, err)
	}
	s.entries[name] = id
	return nil
}

// Next 返回任务的下一次执行时间
func (s *Scheduler) Next(name string) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Run 启动定时器并阻塞到ctx结束, 返回前等待正在执行的任务
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.entries) == 0 {
		return fmt.Errorf("没有可执行的定时任务")
	}
	s.ctx = ctx
	s.cron.Start()

	for name := range s.entries {
		if next, ok := s.Next(name); ok {
			utils.Infof("📅 %s 下次执行: %s", name, next.In(s.location).Format("2006-01-02 15:04:05 MST"))
		}
	}

	<-ctx.Done()
	utils.Info("停止定时器, 等待正在执行的任务...")
	<-s.cron.Stop().Done()
	return nil
}
