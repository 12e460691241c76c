package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoAddress is returned by a Prober when every candidate page for a
// target was probed without yielding a usable address.
var ErrNoAddress = errors.New("no email address found")

// RunnerConfig controls Runner behavior.
type RunnerConfig struct {
	// SendEnabled gates the notify step. Discovery still runs when false;
	// found addresses are recorded with StatusFoundNotSent.
	SendEnabled bool
}

// Runner drives the batch: one target at a time, fetch → extract → notify →
// record. A target's failure is downgraded into its result row and never
// stops the batch.
type Runner struct {
	prober   Prober
	notifier Notifier
	composer Composer
	pacer    Pacer
	clock    Clock
	cfg      RunnerConfig
	logger   *zap.Logger
}

// NewRunner constructs a Runner. notifier and composer may be nil when
// sending is disabled; pacer may be nil to disable inter-target pacing.
func NewRunner(
	prober Prober,
	notifier Notifier,
	composer Composer,
	pacer Pacer,
	clock Clock,
	cfg RunnerConfig,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		prober:   prober,
		notifier: notifier,
		composer: composer,
		pacer:    pacer,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run processes targets strictly in order and returns one result per
// processed target. It stops early only when the context is canceled.
func (r *Runner) Run(ctx context.Context, targets []string) []Result {
	results := make([]Result, 0, len(targets))
	for i, target := range targets {
		if i > 0 {
			if err := r.pace(ctx); err != nil {
				r.logger.Warn("batch interrupted", zap.Error(err))
				return results
			}
		}
		r.logger.Info("processing target",
			zap.Int("index", i+1),
			zap.Int("total", len(targets)),
			zap.String("url", target),
		)
		results = append(results, r.processTarget(ctx, target))
	}
	return results
}

func (r *Runner) pace(ctx context.Context) error {
	if r.pacer == nil {
		return nil
	}
	if err := r.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	return nil
}

func (r *Runner) processTarget(ctx context.Context, target string) Result {
	res := Result{
		Company: target,
		URL:     target,
		Status:  StatusFailed,
	}
	if r.notifier != nil {
		res.SenderEmail = r.notifier.Sender()
	}

	r.discoverAndNotify(ctx, target, &res)

	res.Timestamp = r.clock.Now()
	return res
}

func (r *Runner) discoverAndNotify(ctx context.Context, target string, res *Result) {
	disc, err := r.prober.Discover(ctx, target)
	if err != nil {
		if errors.Is(err, ErrNoAddress) {
			res.Status = StatusNoEmail
		}
		res.Error = err.Error()
		r.logger.Warn("discovery failed", zap.String("url", target), zap.Error(err))
		return
	}

	res.URL = disc.FinalURL
	res.Email = disc.Address
	r.logger.Info("address found",
		zap.String("url", target),
		zap.String("email", disc.Address),
		zap.Int("pages_probed", disc.PagesProbed),
	)

	if !r.cfg.SendEnabled || r.notifier == nil {
		res.Status = StatusFoundNotSent
		return
	}

	msgID, err := r.notify(ctx, disc, target)
	if err != nil {
		res.Error = err.Error()
		r.logger.Error("send failed",
			zap.String("url", target),
			zap.String("email", disc.Address),
			zap.Error(err),
		)
		return
	}
	res.Status = StatusSuccess
	res.MessageID = msgID
	r.logger.Info("message sent",
		zap.String("email", disc.Address),
		zap.String("message_id", msgID),
	)
}

func (r *Runner) notify(ctx context.Context, disc Discovery, target string) (string, error) {
	msg, err := r.composer.Compose(MessageData{
		Company: target,
		URL:     disc.FinalURL,
		Email:   disc.Address,
	})
	if err != nil {
		return "", fmt.Errorf("compose message: %w", err)
	}
	msgID, err := r.notifier.Send(ctx, disc.Address, msg)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return msgID, nil
}
