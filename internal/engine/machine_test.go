package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sdiabate1337/reput/internal/models"
	"github.com/Sdiabate1337/reput/internal/rating"
)

var allStates = []models.ConversationState{
	models.StateInit,
	models.StateFeedbackPending,
	models.StateConversionPending,
	models.StateResolved,
	models.StateClosed,
}

var allSentiments = []models.Sentiment{
	models.SentimentUnknown,
	models.SentimentPositive,
	models.SentimentNeutral,
	models.SentimentNegative,
	models.SentimentCritical,
}

var allRatings = []rating.Rating{rating.High, rating.Mid, rating.Low, rating.None}

var allProvenances = []models.Provenance{models.ProvenanceScan, models.ProvenanceDirect}

// Every (state, sentiment, provenance, rating) combination must land on
// a defined state, never outside the closed set.
func TestDecide_TransitionClosure(t *testing.T) {
	valid := map[models.ConversationState]bool{}
	for _, s := range allStates {
		valid[s] = true
	}

	for _, state := range allStates {
		for _, sentiment := range allSentiments {
			for _, prov := range allProvenances {
				for _, r := range allRatings {
					d := Decide(state, sentiment, prov, r)
					assert.Truef(t, valid[d.NextState],
						"Decide(%s, %s, %s, %s) produced undefined state %q",
						state, sentiment, prov, r, d.NextState)
				}
			}
		}
	}
}

func TestDecide_ScanResetsAnyState(t *testing.T) {
	for _, state := range allStates {
		d := Decide(state, models.SentimentNegative, models.ProvenanceScan, rating.None)
		assert.Equal(t, models.StateInit, d.NextState)
		assert.True(t, d.Reset)
		assert.Equal(t, ReplyRatingPrompt, d.Reply)
		assert.False(t, d.Suppress)
	}
}

func TestDecide_InitHighRating(t *testing.T) {
	d := Decide(models.StateInit, models.SentimentUnknown, models.ProvenanceDirect, rating.High)
	assert.Equal(t, models.StateConversionPending, d.NextState)
	assert.Equal(t, models.SentimentPositive, d.Sentiment)
	assert.Equal(t, models.StatusConverted, d.Status)
	assert.Equal(t, ReplyPositiveCTA, d.Reply)
	assert.False(t, d.EscalateNow)
}

func TestDecide_InitMidRating(t *testing.T) {
	d := Decide(models.StateInit, models.SentimentUnknown, models.ProvenanceDirect, rating.Mid)
	assert.Equal(t, models.StateFeedbackPending, d.NextState)
	assert.Equal(t, models.SentimentNeutral, d.Sentiment)
	assert.Equal(t, models.StatusNeedsAttention, d.Status)
	assert.Equal(t, ReplyNeutralFollowUp, d.Reply)
}

func TestDecide_InitLowRatingEscalatesImmediately(t *testing.T) {
	d := Decide(models.StateInit, models.SentimentUnknown, models.ProvenanceDirect, rating.Low)
	assert.Equal(t, models.StateFeedbackPending, d.NextState)
	assert.Equal(t, models.SentimentNegative, d.Sentiment)
	assert.Equal(t, models.StatusNeedsAttention, d.Status)
	assert.Equal(t, ReplyNegativeApology, d.Reply)
	assert.True(t, d.EscalateNow)
}

func TestDecide_NeutralFeedbackResolvesToConversion(t *testing.T) {
	d := Decide(models.StateFeedbackPending, models.SentimentNeutral, models.ProvenanceDirect, rating.None)
	assert.Equal(t, models.StateConversionPending, d.NextState)
	assert.Equal(t, models.StatusConverted, d.Status)
	assert.Equal(t, ReplyAckThenCTA, d.Reply)
	assert.True(t, d.AnalyzeElaboration)
	assert.False(t, d.EscalateOnCritical)
}

func TestDecide_NegativeFeedbackResolvesAndClosesWithCriticalEscalation(t *testing.T) {
	d := Decide(models.StateFeedbackPending, models.SentimentNegative, models.ProvenanceDirect, rating.None)
	assert.Equal(t, models.StateResolved, d.NextState)
	assert.Equal(t, models.StatusClosed, d.Status)
	assert.Equal(t, ReplyAck, d.Reply)
	assert.True(t, d.AnalyzeElaboration)
	assert.True(t, d.EscalateOnCritical)
}

// A rating reply while awaiting elaboration must not re-enter the
// rating rows: the feedback rows match first for remembered sentiments.
func TestDecide_FeedbackPendingIgnoresRatingTokens(t *testing.T) {
	d := Decide(models.StateFeedbackPending, models.SentimentNeutral, models.ProvenanceDirect, rating.High)
	assert.Equal(t, models.StateConversionPending, d.NextState)
	assert.Equal(t, ReplyAckThenCTA, d.Reply)
}

func TestDecide_TerminalStatesSuppress(t *testing.T) {
	for _, state := range []models.ConversationState{models.StateConversionPending, models.StateResolved} {
		for _, r := range allRatings {
			d := Decide(state, models.SentimentPositive, models.ProvenanceDirect, r)
			assert.Equal(t, state, d.NextState, "terminal state must not change")
			assert.True(t, d.Suppress)
			assert.Equal(t, ReplyNone, d.Reply)
			assert.False(t, d.EscalateNow)
		}
	}
}

func TestDecide_DefaultFallback(t *testing.T) {
	cases := []struct {
		state     models.ConversationState
		sentiment models.Sentiment
	}{
		{models.StateInit, models.SentimentUnknown},            // unrated text
		{models.StateFeedbackPending, models.SentimentUnknown}, // no remembered sentiment
		{models.StateClosed, models.SentimentPositive},         // customer writes to a closed thread
	}
	for _, c := range cases {
		d := Decide(c.state, c.sentiment, models.ProvenanceDirect, rating.None)
		assert.Equal(t, c.state, d.NextState)
		assert.Equal(t, ReplyGenerated, d.Reply)
		assert.True(t, d.AnalyzeHistory)
		assert.True(t, d.EscalateOnCritical)
		assert.False(t, d.Suppress)
	}
}
