package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Sdiabate1337/reput/internal/classifier"
	"github.com/Sdiabate1337/reput/internal/dispatcher"
	"github.com/Sdiabate1337/reput/internal/escalation"
	"github.com/Sdiabate1337/reput/internal/locker"
	"github.com/Sdiabate1337/reput/internal/metrics"
	"github.com/Sdiabate1337/reput/internal/models"
	"github.com/Sdiabate1337/reput/internal/quota"
	"github.com/Sdiabate1337/reput/internal/rating"
	"github.com/Sdiabate1337/reput/internal/storage"
)

// Default fallback when acknowledgment generation is unavailable.
const fallbackAckText = "Merci beaucoup pour votre retour 🙏"

// Orchestrator is the top-level entry point for one inbound event: it
// wires ingress, rating classification, the state machine, quota and
// escalation together and talks to the external collaborators.
type Orchestrator struct {
	store            storage.Store
	classifier       classifier.Classifier
	transcriber      transcriber
	dispatcher       dispatcher.Dispatcher
	notifier         *escalation.Notifier
	gate             *quota.Gate
	locks            locker.Locker
	ratingTemplateID string
	logger           *zap.Logger
}

// transcriber is the narrow view of the transcription collaborator the
// orchestrator needs; nil means voice notes are recorded untranscribed.
type transcriber interface {
	Transcribe(ctx context.Context, mediaURL string) (string, error)
}

func NewOrchestrator(
	store storage.Store,
	clf classifier.Classifier,
	tr transcriber,
	d dispatcher.Dispatcher,
	notifier *escalation.Notifier,
	gate *quota.Gate,
	locks locker.Locker,
	ratingTemplateID string,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:            store,
		classifier:       clf,
		transcriber:      tr,
		dispatcher:       d,
		notifier:         notifier,
		gate:             gate,
		locks:            locks,
		ratingTemplateID: ratingTemplateID,
		logger:           logger,
	}
}

// outbound is one message to dispatch for the current transition.
type outbound struct {
	templateID string
	vars       map[string]string
	body       string // freeform body, and the text appended to the log
}

// HandleInbound processes one webhook delivery end to end. A nil return
// means "handled" (including no-ops and unknown tenants) and the caller
// must ack with a non-retry status; a non-nil return is a persistence
// or internal failure the provider should redeliver.
func (o *Orchestrator) HandleInbound(ctx context.Context, ev models.InboundEvent) error {
	tenant, err := o.store.ResolveTenant(ctx, ev.To)
	if errors.Is(err, storage.ErrTenantNotFound) {
		o.logger.Warn("Inbound event for unknown tenant", zap.String("to", ev.To))
		metrics.InboundEvents.WithLabelValues("tenant_unknown").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve tenant: %w", err)
	}

	unlock := o.locks.Lock(tenant.ID + "|" + ev.From)
	defer unlock()

	// Checked under the conversation lock, and only marked once the
	// event is fully handled: a failed attempt stays eligible for the
	// provider's retry.
	if !o.locks.FirstDelivery(ctx, ev.MessageSID) {
		o.logger.Info("Dropping redelivered event",
			zap.String("message_sid", ev.MessageSID),
			zap.String("tenant_id", tenant.ID))
		metrics.DuplicateDeliveries.Inc()
		metrics.InboundEvents.WithLabelValues("duplicate").Inc()
		return nil
	}

	conv, err := o.store.GetOrCreateConversation(ctx, tenant.ID, ev.From, ev.ProfileName, ev.Provenance)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	body := o.resolveBody(ctx, tenant, ev)

	if err := o.store.AppendMessage(ctx, conv.ID, models.RoleCustomer, body); err != nil {
		return fmt.Errorf("failed to record customer message: %w", err)
	}

	d := Decide(conv.State, conv.Sentiment, ev.Provenance, rating.Classify(body))

	if d.Suppress {
		metrics.InboundEvents.WithLabelValues("suppressed").Inc()
		o.locks.MarkDelivered(ctx, ev.MessageSID)
		return nil
	}

	// The default AI branch only runs when the conversation has
	// automation on and the plan includes it; the turn is still
	// recorded either way.
	if d.Reply == ReplyGenerated && (!conv.AIEnabled || !o.gate.CanUseAutomation(tenant, quota.FeatureAutoReply)) {
		metrics.InboundEvents.WithLabelValues("recorded").Inc()
		o.locks.MarkDelivered(ctx, ev.MessageSID)
		return nil
	}

	if err := o.persistTransition(ctx, conv, d); err != nil {
		return err
	}

	if d.EscalateNow {
		o.notifier.Notify(ctx, tenant, conv, body)
	}

	analysis := o.runAnalysis(ctx, tenant, conv, body, d)

	sends, err := o.buildReplies(ctx, tenant, conv, body, d, analysis)
	if err != nil {
		return err
	}

	outcome := "handled"
	if len(sends) > 0 && !o.gate.CanSend(tenant) {
		o.logger.Info("Skipping dispatch, quota exhausted",
			zap.String("tenant_id", tenant.ID),
			zap.Int("quota_limit", tenant.QuotaLimit))
		metrics.QuotaRefusals.Inc()
		outcome = "quota_refused"
		sends = nil
	}

	for i, snd := range sends {
		// Multi-send replies re-check between sends so a tenant on its
		// last quota unit does not overshoot the cap.
		if i > 0 && !o.gate.CanSend(tenant) {
			o.logger.Info("Skipping remaining replies, quota exhausted",
				zap.String("tenant_id", tenant.ID))
			metrics.QuotaRefusals.Inc()
			break
		}
		if err := o.dispatch(ctx, tenant, conv, ev.From, snd, d.Reply); err != nil {
			// Degrade silently: the customer gets no reply this turn
			// rather than an error message.
			o.logger.Error("Failed to dispatch reply",
				zap.Error(err),
				zap.String("conversation_id", conv.ID),
				zap.String("kind", string(d.Reply)))
		}
	}

	if d.EscalateOnCritical && analysis != nil && analysis.IsCritical {
		o.notifier.Notify(ctx, tenant, conv, body)
	}

	metrics.InboundEvents.WithLabelValues(outcome).Inc()
	o.locks.MarkDelivered(ctx, ev.MessageSID)
	return nil
}

// resolveBody returns the textual content of the turn, transcribing a
// voice note when possible. Transcription failures degrade to the raw
// body, never fail the event.
func (o *Orchestrator) resolveBody(ctx context.Context, tenant *models.Tenant, ev models.InboundEvent) string {
	if !ev.HasVoiceMedia() || o.transcriber == nil {
		return ev.Body
	}
	if !o.gate.CanUseAutomation(tenant, quota.FeatureTranscription) {
		return ev.Body
	}
	text, err := o.transcriber.Transcribe(ctx, ev.MediaURL)
	if err != nil {
		o.logger.Error("Failed to transcribe voice note",
			zap.Error(err),
			zap.String("media_url", ev.MediaURL))
		metrics.TranscriptionFailures.Inc()
		return ev.Body
	}
	if text == "" {
		return ev.Body
	}
	return text
}

func (o *Orchestrator) persistTransition(ctx context.Context, conv *models.Conversation, d Decision) error {
	if d.Reset {
		if err := o.store.ReopenConversation(ctx, conv.ID); err != nil {
			return fmt.Errorf("failed to reset conversation: %w", err)
		}
		conv.State = models.StateInit
		conv.Sentiment = models.SentimentUnknown
		conv.Status = models.StatusOpen
		return nil
	}
	if d.NextState == conv.State && d.Sentiment == models.SentimentUnknown && d.Status == "" {
		return nil
	}
	if err := o.store.UpdateState(ctx, conv.ID, d.NextState, d.Sentiment, d.Status); err != nil {
		return fmt.Errorf("failed to persist transition: %w", err)
	}
	conv.State = d.NextState
	if d.Sentiment != models.SentimentUnknown {
		conv.Sentiment = d.Sentiment
	}
	if d.Status != "" {
		conv.Status = d.Status
	}
	return nil
}

// runAnalysis invokes the classifier when the decision asks for it and
// persists what it returns. A classifier failure degrades: the flow
// continues with whatever succeeded.
func (o *Orchestrator) runAnalysis(ctx context.Context, tenant *models.Tenant, conv *models.Conversation, body string, d Decision) *classifier.Analysis {
	if !d.AnalyzeElaboration && !d.AnalyzeHistory {
		return nil
	}

	history := []models.Message{{ConversationID: conv.ID, Role: models.RoleCustomer, Body: body}}
	if d.AnalyzeHistory {
		full, err := o.store.ListMessages(ctx, conv.ID)
		if err != nil {
			o.logger.Error("Failed to load history for analysis",
				zap.Error(err),
				zap.String("conversation_id", conv.ID))
		} else {
			history = full
		}
	}

	analysis, err := o.classifier.Analyze(ctx, history, tenant)
	if err != nil {
		o.logger.Error("Classifier failed, continuing without analysis",
			zap.Error(err),
			zap.String("conversation_id", conv.ID))
		return nil
	}

	sentiment := models.SentimentUnknown
	status := models.ConversationStatus("")
	if d.AnalyzeHistory {
		sentiment = analysis.Sentiment
		if analysis.IsCritical {
			sentiment = models.SentimentCritical
			status = models.StatusNeedsAttention
		}
	}
	if err := o.store.UpdateAnalysis(ctx, conv.ID, sentiment, status, analysis.Language); err != nil {
		o.logger.Error("Failed to persist analysis",
			zap.Error(err),
			zap.String("conversation_id", conv.ID))
	}
	return analysis
}

func (o *Orchestrator) buildReplies(ctx context.Context, tenant *models.Tenant, conv *models.Conversation, body string, d Decision, analysis *classifier.Analysis) ([]outbound, error) {
	switch d.Reply {
	case ReplyRatingPrompt:
		return []outbound{{
			templateID: o.ratingTemplateID,
			vars:       map[string]string{"1": tenant.Name},
			body:       tenant.WelcomeText(),
		}}, nil

	case ReplyPositiveCTA:
		return []outbound{{body: tenant.PositiveText() + "\n" + trackedReviewLink(tenant)}}, nil

	case ReplyNeutralFollowUp:
		return []outbound{{body: tenant.NeutralText()}}, nil

	case ReplyNegativeApology:
		return []outbound{{body: tenant.NegativeText()}}, nil

	case ReplyAckThenCTA:
		return []outbound{
			{body: o.generateAck(ctx, tenant, conv, body)},
			{body: tenant.PositiveText() + "\n" + trackedReviewLink(tenant)},
		}, nil

	case ReplyAck:
		return []outbound{{body: o.generateAck(ctx, tenant, conv, body)}}, nil

	case ReplyGenerated:
		// No templated fallback is defined for the generated branch:
		// if analysis failed or produced no reply, skip the send.
		if analysis == nil || analysis.Reply == "" {
			return nil, nil
		}
		return []outbound{{body: analysis.Reply}}, nil

	case ReplyNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unhandled reply kind %q", d.Reply)
	}
}

func (o *Orchestrator) generateAck(ctx context.Context, tenant *models.Tenant, conv *models.Conversation, body string) string {
	ack, err := o.classifier.GenerateAck(ctx, body, conv.CustomerName, tenant.Name, conv.Sentiment)
	if err != nil || strings.TrimSpace(ack) == "" {
		if err != nil {
			o.logger.Error("Failed to generate acknowledgment, using fallback",
				zap.Error(err),
				zap.String("conversation_id", conv.ID))
		}
		return fallbackAckText
	}
	return ack
}

// dispatch sends one outbound message, then consumes quota and appends
// the assistant message only after the provider confirmed the send.
func (o *Orchestrator) dispatch(ctx context.Context, tenant *models.Tenant, conv *models.Conversation, to string, snd outbound, kind ReplyKind) error {
	var err error
	if snd.templateID != "" {
		err = o.dispatcher.SendTemplate(ctx, to, snd.templateID, snd.vars)
	} else {
		err = o.dispatcher.SendFreeform(ctx, to, snd.body)
	}
	if err != nil {
		return err
	}

	metrics.RepliesSent.WithLabelValues(string(kind)).Inc()

	if ok, qerr := o.store.ConsumeQuota(ctx, tenant.ID); qerr != nil {
		o.logger.Error("Failed to consume quota",
			zap.Error(qerr),
			zap.String("tenant_id", tenant.ID))
	} else if ok {
		// Keep the loaded snapshot current so later sends of this turn
		// see the consumption.
		tenant.QuotaUsed++
	} else {
		o.logger.Warn("Quota cap hit after dispatch",
			zap.String("tenant_id", tenant.ID))
	}

	if err := o.store.AppendMessage(ctx, conv.ID, models.RoleAssistant, snd.body); err != nil {
		o.logger.Error("Failed to record assistant message",
			zap.Error(err),
			zap.String("conversation_id", conv.ID))
	}
	return nil
}

// trackedReviewLink appends the tenant's id so review clicks can be
// attributed.
func trackedReviewLink(t *models.Tenant) string {
	if strings.Contains(t.ReviewLink, "?") {
		return t.ReviewLink + "&c=" + t.ID
	}
	return t.ReviewLink + "?c=" + t.ID
}
