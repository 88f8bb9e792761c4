package engine

import (
	"github.com/Sdiabate1337/reput/internal/models"
	"github.com/Sdiabate1337/reput/internal/rating"
)

// ReplyKind names the outbound action a transition produces.
type ReplyKind string

const (
	ReplyNone            ReplyKind = "none"
	ReplyRatingPrompt    ReplyKind = "rating_prompt"
	ReplyPositiveCTA     ReplyKind = "positive_cta"
	ReplyNeutralFollowUp ReplyKind = "neutral_follow_up"
	ReplyNegativeApology ReplyKind = "negative_apology"
	ReplyAckThenCTA      ReplyKind = "ack_then_cta"
	ReplyAck             ReplyKind = "ack"
	ReplyGenerated       ReplyKind = "generated"
)

// Decision is the full outcome of one transition: the next state, the
// persistence updates that travel with it, and the side effects the
// orchestrator must execute. Sentiment/Status left empty mean
// "unchanged".
type Decision struct {
	NextState models.ConversationState
	Sentiment models.Sentiment
	Status    models.ConversationStatus

	// Reset clears the conversation back to a fresh prompt (scan).
	Reset bool

	Reply ReplyKind

	// EscalateNow alerts the operator on the rating alone, before any
	// classification runs.
	EscalateNow bool

	// AnalyzeElaboration runs the classifier on this turn's text;
	// AnalyzeHistory runs it over the full message log.
	AnalyzeElaboration bool
	AnalyzeHistory     bool

	// EscalateOnCritical alerts the operator if the classifier flags
	// the turn as critical.
	EscalateOnCritical bool

	// Suppress records the inbound message but produces no reply and
	// no state change (terminal states).
	Suppress bool
}

// Decide computes the transition for one inbound event. The rating is
// resolved by the caller before this table is consulted, never
// interleaved with it. Rows are evaluated in priority order; the first
// match wins, and every (state, input) pair lands on exactly one row.
func Decide(state models.ConversationState, remembered models.Sentiment, provenance models.Provenance, r rating.Rating) Decision {
	switch {
	// A scan is the customer starting over, whatever the current state.
	case provenance == models.ProvenanceScan:
		return Decision{
			NextState: models.StateInit,
			Status:    models.StatusOpen,
			Reset:     true,
			Reply:     ReplyRatingPrompt,
		}

	case state == models.StateInit && r == rating.High:
		return Decision{
			NextState: models.StateConversionPending,
			Sentiment: models.SentimentPositive,
			Status:    models.StatusConverted,
			Reply:     ReplyPositiveCTA,
		}

	case state == models.StateInit && r == rating.Mid:
		return Decision{
			NextState: models.StateFeedbackPending,
			Sentiment: models.SentimentNeutral,
			Status:    models.StatusNeedsAttention,
			Reply:     ReplyNeutralFollowUp,
		}

	case state == models.StateInit && r == rating.Low:
		return Decision{
			NextState:   models.StateFeedbackPending,
			Sentiment:   models.SentimentNegative,
			Status:      models.StatusNeedsAttention,
			Reply:       ReplyNegativeApology,
			EscalateNow: true,
		}

	case state == models.StateFeedbackPending && remembered == models.SentimentNeutral:
		return Decision{
			NextState:          models.StateConversionPending,
			Status:             models.StatusConverted,
			Reply:              ReplyAckThenCTA,
			AnalyzeElaboration: true,
		}

	case state == models.StateFeedbackPending && remembered == models.SentimentNegative:
		return Decision{
			NextState:          models.StateResolved,
			Status:             models.StatusClosed,
			Reply:              ReplyAck,
			AnalyzeElaboration: true,
			EscalateOnCritical: true,
		}

	case state.Terminal():
		return Decision{
			NextState: state,
			Reply:     ReplyNone,
			Suppress:  true,
		}

	// Fallback: unrated text in INIT, FEEDBACK_PENDING without a
	// remembered sentiment, or a CLOSED thread the customer writes to.
	default:
		return Decision{
			NextState:          state,
			Reply:              ReplyGenerated,
			AnalyzeHistory:     true,
			EscalateOnCritical: true,
		}
	}
}
