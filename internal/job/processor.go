package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailgenie/internal/model"
	"mailgenie/internal/poller"
	"mailgenie/internal/util"
	"mailgenie/pkg/logger"
	"mailgenie/pkg/metrics"
	"mailgenie/pkg/trace"

	"github.com/google/uuid"
)

// AccountSource lists the connected accounts a pass iterates over.
type AccountSource interface {
	ListAll(ctx context.Context) ([]model.Account, error)
}

// RuleSource returns the enabled rules that apply to one account.
type RuleSource interface {
	ListEnabledForAccount(ctx context.Context, userID int, accountID string) ([]model.Rule, error)
}

// AccountPoller fetches the new messages of one account.
type AccountPoller interface {
	PollAccount(ctx context.Context, account model.Account, now time.Time) (*poller.Result, error)
}

// Decider turns one email plus the account's rules into a decision.
type Decider interface {
	Categorize(ctx context.Context, email model.Email, rules []model.Rule) model.Decision
}

// Actor applies decided actions against the mailbox.
type Actor interface {
	MarkImportant(ctx context.Context, creds model.Credentials, messageID string) error
	ArchiveMessage(ctx context.Context, creds model.Credentials, messageID string) error
	MarkReadAndMoveToLabel(ctx context.Context, creds model.Credentials, messageID string, labelIDs []string) error
	ApplyLabels(ctx context.Context, creds model.Credentials, messageID string, labelIDs []string) error
	GetOrCreateLabel(ctx context.Context, creds model.Credentials, name string) (string, error)
}

// Deduper suppresses messages already handled in an earlier pass. Release
// undoes a claim so a failed message stays eligible for the next pass.
type Deduper interface {
	AcquireOnce(ctx context.Context, accountID, messageID string) bool
	Release(ctx context.Context, accountID, messageID string)
}

// Recorder persists one processed email.
type Recorder interface {
	RecordProcessedEmail(ctx context.Context, log *model.EmailLog) error
}

// StatusStore keeps the latest run summary readable while and after a pass.
type StatusStore interface {
	Set(ctx context.Context, summary *model.RunSummary) error
}

// Processor runs one full processing pass: poll every account, categorize
// every new message, apply the decided actions, and record the outcome.
type Processor struct {
	accounts AccountSource
	rules    RuleSource
	poller   AccountPoller
	decider  Decider
	actor    Actor
	deduper  Deduper
	recorder Recorder
	status   StatusStore
	logger   *zap.Logger
}

func NewProcessor(
	accounts AccountSource,
	rules RuleSource,
	accountPoller AccountPoller,
	decider Decider,
	actor Actor,
	deduper Deduper,
	recorder Recorder,
	status StatusStore,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		accounts: accounts,
		rules:    rules,
		poller:   accountPoller,
		decider:  decider,
		actor:    actor,
		deduper:  deduper,
		recorder: recorder,
		status:   status,
		logger:   logger,
	}
}

// Run executes one pass across all accounts. Item-level errors are
// aggregated into the summary instead of aborting the pass; only a failure
// to list the accounts themselves is fatal.
func (p *Processor) Run(ctx context.Context) (model.RunSummary, error) {
	startedAt := time.Now()

	if trace.FromContext(ctx) == "" {
		ctx = trace.WithContext(ctx, trace.GenerateTraceID())
	}
	passLogger := logger.WithTrace(ctx, p.logger)

	passLogger.Info("Starting processing pass")

	running := model.RunSummary{
		StartedAt: startedAt,
		Status:    model.RunStatusRunning,
		Message:   "Job started",
	}
	if err := p.status.Set(ctx, &running); err != nil {
		p.logger.Error("Failed to record running status", zap.Error(err))
	}

	summary := model.RunSummary{StartedAt: startedAt}

	accounts, err := p.accounts.ListAll(ctx)
	if err != nil {
		summary.FinishedAt = time.Now()
		summary.Status = model.RunStatusError
		summary.ErrorCount = 1
		summary.Message = "Job failed with an unexpected error"
		_, errType := util.ClassifyError(err)
		summary.Failures = append(summary.Failures, model.ProcessingFailure{
			Cause:     err.Error(),
			ErrorType: errType,
		})
		if setErr := p.status.Set(ctx, &summary); setErr != nil {
			p.logger.Error("Failed to record error status", zap.Error(setErr))
		}
		return summary, fmt.Errorf("list accounts: %w", err)
	}

	for _, account := range accounts {
		p.processAccount(ctx, account, &summary)
	}

	summary.FinishedAt = time.Now()
	if summary.ErrorCount > 0 {
		summary.Status = model.RunStatusPartial
	} else {
		summary.Status = model.RunStatusSuccess
	}
	summary.Message = fmt.Sprintf("Processed %d emails with %d errors", summary.ProcessedCount, summary.ErrorCount)

	if err := p.status.Set(ctx, &summary); err != nil {
		p.logger.Error("Failed to record final status", zap.Error(err))
	}

	passLogger.Info("Processing pass finished",
		zap.String("status", string(summary.Status)),
		zap.Int("processed_count", summary.ProcessedCount),
		zap.Int("error_count", summary.ErrorCount),
	)

	return summary, nil
}

func (p *Processor) processAccount(ctx context.Context, account model.Account, summary *model.RunSummary) {
	result, err := p.poller.PollAccount(ctx, account, time.Now())
	if err != nil {
		p.logger.Error("Failed to poll account",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
		summary.ErrorCount++
		_, errType := util.ClassifyError(err)
		summary.Failures = append(summary.Failures, model.ProcessingFailure{
			AccountID: account.ID,
			Cause:     err.Error(),
			ErrorType: errType,
		})
		return
	}

	for _, fetchErr := range result.FetchErrors {
		summary.ErrorCount++
		_, errType := util.ClassifyError(fetchErr)
		summary.Failures = append(summary.Failures, model.ProcessingFailure{
			AccountID: account.ID,
			Cause:     fetchErr.Error(),
			ErrorType: errType,
		})
	}

	if len(result.Emails) == 0 {
		return
	}

	rules, err := p.rules.ListEnabledForAccount(ctx, account.UserID, account.ID)
	if err != nil {
		p.logger.Error("Failed to load rules",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
		summary.ErrorCount++
		_, errType := util.ClassifyError(err)
		summary.Failures = append(summary.Failures, model.ProcessingFailure{
			AccountID: account.ID,
			Cause:     err.Error(),
			ErrorType: errType,
		})
		return
	}

	for _, email := range result.Emails {
		if !p.deduper.AcquireOnce(ctx, email.AccountID, email.MessageID) {
			metrics.IncrementEmailProcessed("skipped")
			continue
		}

		if err := p.processEmail(ctx, result.Credentials, email, rules); err != nil {
			// The claim must not outlive the failure: the overlap window
			// re-lists this message, and the next pass should retry it.
			p.deduper.Release(ctx, email.AccountID, email.MessageID)
			p.logger.Error("Failed to process email",
				zap.String("account_id", email.AccountID),
				zap.String("message_id", email.MessageID),
				zap.Error(err),
			)
			summary.ErrorCount++
			_, errType := util.ClassifyError(err)
			summary.Failures = append(summary.Failures, model.ProcessingFailure{
				AccountID: email.AccountID,
				MessageID: email.MessageID,
				Cause:     err.Error(),
				ErrorType: errType,
			})
			metrics.IncrementEmailProcessed("error")
			continue
		}

		summary.ProcessedCount++
		metrics.IncrementEmailProcessed("success")
	}
}

func (p *Processor) processEmail(ctx context.Context, creds model.Credentials, email model.PolledEmail, rules []model.Rule) error {
	decision := p.decider.Categorize(ctx, email.Email, rules)

	appliedActions, err := p.applyDecision(ctx, creds, email.MessageID, decision)
	if err != nil {
		return err
	}

	log := model.EmailLog{
		ID:             uuid.NewString(),
		AccountID:      email.AccountID,
		MessageID:      email.MessageID,
		Sender:         email.From,
		Subject:        email.Subject,
		Snippet:        email.Snippet,
		AppliedActions: appliedActions,
		RuleMatched:    decision.Reasoning,
		Decision:       decision,
		ProcessedAt:    time.Now(),
	}
	if err := p.recorder.RecordProcessedEmail(ctx, &log); err != nil {
		return fmt.Errorf("record processed email: %w", err)
	}

	return nil
}

// applyDecision applies the decided actions in a fixed order and returns
// the names of the actions that actually ran.
func (p *Processor) applyDecision(ctx context.Context, creds model.Credentials, messageID string, decision model.Decision) ([]string, error) {
	appliedActions := []string{}

	if decision.ShouldMarkImportant {
		if err := p.actor.MarkImportant(ctx, creds, messageID); err != nil {
			return appliedActions, fmt.Errorf("mark important: %w", err)
		}
		appliedActions = append(appliedActions, "marked_important")
		metrics.IncrementActionApplied("mark_important")
	}

	if decision.ShouldSkipInbox {
		if err := p.actor.ArchiveMessage(ctx, creds, messageID); err != nil {
			return appliedActions, fmt.Errorf("archive message: %w", err)
		}
		appliedActions = append(appliedActions, "archived")
		metrics.IncrementActionApplied("archive")
	}

	if decision.ShouldMarkReadAndLabel && len(decision.SuggestedLabels) > 0 {
		labelIDs, err := p.resolveLabels(ctx, creds, decision.SuggestedLabels)
		if err != nil {
			return appliedActions, err
		}
		if len(labelIDs) > 0 {
			if err := p.actor.MarkReadAndMoveToLabel(ctx, creds, messageID, labelIDs); err != nil {
				return appliedActions, fmt.Errorf("mark read and label: %w", err)
			}
			appliedActions = append(appliedActions, "marked_read_and_labeled:"+strings.Join(decision.SuggestedLabels, ","))
			metrics.IncrementActionApplied("mark_read_and_label")
		}
	} else if len(decision.SuggestedLabels) > 0 {
		labelIDs, err := p.resolveLabels(ctx, creds, decision.SuggestedLabels)
		if err != nil {
			return appliedActions, err
		}
		if len(labelIDs) > 0 {
			if err := p.actor.ApplyLabels(ctx, creds, messageID, labelIDs); err != nil {
				return appliedActions, fmt.Errorf("apply labels: %w", err)
			}
			appliedActions = append(appliedActions, "applied_labels:"+strings.Join(decision.SuggestedLabels, ","))
			metrics.IncrementActionApplied("apply_labels")
		}
	}

	return appliedActions, nil
}

func (p *Processor) resolveLabels(ctx context.Context, creds model.Credentials, names []string) ([]string, error) {
	labelIDs := []string{}
	for _, name := range names {
		id, err := p.actor.GetOrCreateLabel(ctx, creds, name)
		if err != nil {
			return nil, fmt.Errorf("resolve label %q: %w", name, err)
		}
		labelIDs = append(labelIDs, id)
	}
	return labelIDs, nil
}
