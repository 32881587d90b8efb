// Command worker drains the scheduled_posts queue and hands due rows to
// the social proxy. It is safe to run more than one instance: claiming
// uses FOR UPDATE SKIP LOCKED, so each row is dispatched exactly once.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/infra/credentials"
	"adforge/internal/social"
	"adforge/internal/sqlinline"
)

// claimedPost is one due row pulled off the queue, already flipped to
// processing by the claim query.
type claimedPost struct {
	ID             string
	PostID         string
	Platforms      string
	Text           string
	MediaURL       string
	ScheduleType   string
	RecurrenceDays string
	RecurrenceTime string
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: connect database")
	}
	defer pool.Close()
	sql := infra.NewSQLRunner(pool, logger)

	token := cfg.SocialProxyToken
	if token == "" {
		stored, terr := credentials.NewStore(sql).SocialProxyToken(ctx)
		if terr != nil {
			logger.Warn().Err(terr).Msg("worker: read stored proxy token")
		} else {
			token = stored
		}
	}
	client := social.NewClient(social.Options{
		BaseURL: cfg.SocialProxyURL,
		Token:   token,
		Logger:  logger,
	})
	if !client.Configured() {
		logger.Fatal().Msg("worker: SOCIAL_PROXY_URL is required, refusing to drop due posts")
	}

	logger.Info().Dur("poll_interval", cfg.WorkerPollInterval).Msg("worker: started")

	ticker := time.NewTicker(cfg.WorkerPollInterval)
	defer ticker.Stop()
	for {
		drainDue(ctx, sql, client, logger)
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker: stopped")
			return
		case <-ticker.C:
		}
	}
}

// drainDue claims and dispatches rows one at a time until nothing is due.
func drainDue(ctx context.Context, sql infra.SQLExecutor, client *social.Client, logger infra.Logger) {
	for ctx.Err() == nil {
		claimed, err := claimNext(ctx, sql)
		if infra.IsNoRows(err) {
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("worker: claim due post")
			return
		}
		dispatch(ctx, sql, client, logger, claimed)
	}
}

func claimNext(ctx context.Context, sql infra.SQLExecutor) (*claimedPost, error) {
	var c claimedPost
	err := sql.QueryRow(ctx, sqlinline.QClaimDueScheduledPost).Scan(
		&c.ID, &c.PostID, &c.Platforms, &c.Text, &c.MediaURL,
		&c.ScheduleType, &c.RecurrenceDays, &c.RecurrenceTime,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// dispatch publishes one claimed row and records the outcome. The status
// update runs on a detached context so a shutdown signal arriving
// mid-publish cannot strand the row in processing.
func dispatch(ctx context.Context, sql infra.SQLExecutor, client *social.Client, logger infra.Logger, c *claimedPost) {
	result, err := client.Publish(ctx, social.PublishRequest{
		Text:      c.Text,
		Platforms: domain.DecodeImageList(c.Platforms),
		MediaURL:  c.MediaURL,
	})

	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err != nil {
		logger.Error().Err(err).Str("scheduled_post_id", c.ID).Msg("worker: publish failed")
		if _, merr := sql.Exec(markCtx, sqlinline.QMarkScheduledPostFailed, c.ID, err.Error()); merr != nil {
			logger.Error().Err(merr).Str("scheduled_post_id", c.ID).Msg("worker: mark failed")
		}
		return
	}

	if domain.ScheduleType(c.ScheduleType) == domain.ScheduleRecurring {
		next, nerr := domain.NextOccurrence(time.Now().UTC(), domain.DecodeRecurrenceDays(c.RecurrenceDays), c.RecurrenceTime)
		if nerr == nil {
			if _, merr := sql.Exec(markCtx, sqlinline.QRescheduleRecurringPost, c.ID, next, result.Ref); merr != nil {
				logger.Error().Err(merr).Str("scheduled_post_id", c.ID).Msg("worker: reschedule recurring post")
				return
			}
			logger.Info().
				Str("scheduled_post_id", c.ID).
				Str("external_ref", result.Ref).
				Time("next_occurrence", next).
				Msg("worker: dispatched, requeued next occurrence")
			return
		}
		logger.Warn().Err(nerr).Str("scheduled_post_id", c.ID).Msg("worker: recurrence config unusable, closing out")
	}

	if _, merr := sql.Exec(markCtx, sqlinline.QMarkScheduledPostSent, c.ID, result.Ref); merr != nil {
		logger.Error().Err(merr).Str("scheduled_post_id", c.ID).Msg("worker: mark sent")
		return
	}
	logger.Info().Str("scheduled_post_id", c.ID).Str("external_ref", result.Ref).Msg("worker: dispatched")
}
