package api

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/HarshHariyani/HiringBull/pkg/entitlement"
)

// retentionJob は保持期間を過ぎた失効済みエンタイトルメントを削除する定期ジョブ。
type retentionJob struct {
	store     entitlement.Repository
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time
	logger    logrus.FieldLogger
}

// Run は1回分の削除を実行する。cron.Job を満たす。
func (j *retentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.sweep(ctx); err != nil {
		j.logger.WithError(err).Error("失効済みエンタイトルメントの削除に失敗")
	}
}

// sweep は now - retention より前に失効または取り消されたレコードを削除する。
func (j *retentionJob) sweep(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	n, err := j.store.PruneExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	j.logger.WithFields(logrus.Fields{"deleted": n, "cutoff": cutoff}).Info("失効済みエンタイトルメントを削除しました")
	return n, nil
}

// startRetention は失効済みエンタイトルメント削除ジョブを登録して開始する。
func (s *Server) startRetention(schedule string, retention time.Duration) error {
	job := &retentionJob{
		store:     s.store,
		retention: retention,
		timeout:   time.Minute,
		now:       s.now,
		logger:    s.logger.WithField("job", "entitlement-retention"),
	}

	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(s.logger)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(s.logger)), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddJob(schedule, job); err != nil {
		return fmt.Errorf("RETENTION_SCHEDULE %q が不正です: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}
