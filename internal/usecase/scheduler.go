package usecase

import (
	"context"
	"time"

	"DispersionSignal/pkg/logger"
	"DispersionSignal/pkg/queue"
)

const (
	jobTypeCalculate = "signals.calculate"
	jobTypeSummarize = "signals.summarize"
)

// CalculatePayload is the queue payload for a calculation round.
type CalculatePayload struct {
	Coins []string `json:"coins"`
}

// SummarizePayload is the queue payload for a daily summary run.
type SummarizePayload struct {
	Date string `json:"date"`
}

// CalculateJob runs a calculation round from the queue.
type CalculateJob struct {
	calc   *CalculateUsecase
	coins  []string
	logger *logger.Logger
}

func NewCalculateJob(calc *CalculateUsecase, coins []string, lgr *logger.Logger) *CalculateJob {
	return &CalculateJob{calc: calc, coins: coins, logger: lgr}
}

func (j *CalculateJob) Name() string { return "calculate_signals" }
func (j *CalculateJob) Type() string { return jobTypeCalculate }

func (j *CalculateJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[CalculatePayload](payload)
	if err != nil {
		return err
	}
	coins := p.Coins
	if len(coins) == 0 {
		coins = j.coins
	}
	_, err = j.calc.Run(ctx, coins, false)
	return err
}

// SummarizeJob rolls up the daily summary from the queue.
type SummarizeJob struct {
	sum    *SummarizeUsecase
	logger *logger.Logger
}

func NewSummarizeJob(sum *SummarizeUsecase, lgr *logger.Logger) *SummarizeJob {
	return &SummarizeJob{sum: sum, logger: lgr}
}

func (j *SummarizeJob) Name() string { return "summarize_daily" }
func (j *SummarizeJob) Type() string { return jobTypeSummarize }

func (j *SummarizeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[SummarizePayload](payload)
	if err != nil {
		return err
	}
	_, err = j.sum.Run(ctx, p.Date, false)
	return err
}

// Scheduler enqueues periodic calculate and summarize jobs and runs the
// queue workers that execute them.
type Scheduler struct {
	q                 *queue.RedisQueue
	logger            *logger.Logger
	calculateInterval time.Duration
	summarizeInterval time.Duration
	stopCh            chan struct{}
}

func NewScheduler(q *queue.RedisQueue, lgr *logger.Logger, calculateInterval, summarizeInterval time.Duration) *Scheduler {
	if calculateInterval <= 0 {
		calculateInterval = 5 * time.Minute
	}
	if summarizeInterval <= 0 {
		summarizeInterval = time.Hour
	}
	return &Scheduler{
		q:                 q,
		logger:            lgr,
		calculateInterval: calculateInterval,
		summarizeInterval: summarizeInterval,
		stopCh:            make(chan struct{}),
	}
}

// Start launches the queue workers and the periodic producers.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.q.Start(); err != nil {
		return err
	}

	go s.tick(ctx, s.calculateInterval, func() {
		if err := s.q.Enqueue(ctx, jobTypeCalculate, CalculatePayload{}); err != nil {
			s.logger.Warn("enqueue calculate failed", logger.Error(err))
		}
	})
	go s.tick(ctx, s.summarizeInterval, func() {
		if err := s.q.Enqueue(ctx, jobTypeSummarize, SummarizePayload{Date: "today"}); err != nil {
			s.logger.Warn("enqueue summarize failed", logger.Error(err))
		}
	})

	s.logger.Info("scheduler started",
		logger.Duration("calculate_interval", s.calculateInterval),
		logger.Duration("summarize_interval", s.summarizeInterval),
	)
	return nil
}

func (s *Scheduler) tick(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Stop halts the producers and drains the queue workers.
func (s *Scheduler) Stop(ctx context.Context) error {
	close(s.stopCh)
	return s.q.Stop(ctx)
}
