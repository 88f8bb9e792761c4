package models

import (
	"strings"
	"time"
)

// Plan is a tenant's commercial plan.
type Plan string

const (
	PlanStartup    Plan = "startup"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// SubscriptionStatus is the billing state of a tenant's subscription.
type SubscriptionStatus string

const (
	SubscriptionTrial    SubscriptionStatus = "TRIAL"
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// ConversationState drives the feedback flow for a conversation.
type ConversationState string

const (
	StateInit              ConversationState = "INIT"
	StateFeedbackPending   ConversationState = "FEEDBACK_PENDING"
	StateConversionPending ConversationState = "CONVERSION_PENDING"
	StateResolved          ConversationState = "RESOLVED"
	StateClosed            ConversationState = "CLOSED"
)

// Terminal reports whether generic inbound messages no longer trigger
// automated replies in this state.
func (s ConversationState) Terminal() bool {
	return s == StateConversionPending || s == StateResolved
}

// Sentiment is the last known customer sentiment. The zero value means
// no sentiment has been recorded yet.
type Sentiment string

const (
	SentimentUnknown  Sentiment = ""
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentCritical Sentiment = "CRITICAL"
)

// ConversationStatus is the operator-facing status of a conversation.
type ConversationStatus string

const (
	StatusOpen           ConversationStatus = "OPEN"
	StatusNeedsAttention ConversationStatus = "NEEDS_ATTENTION"
	StatusConverted      ConversationStatus = "CONVERTED"
	StatusClosed         ConversationStatus = "CLOSED"
)

// Provenance tags the origin of an inbound event.
type Provenance string

const (
	ProvenanceScan   Provenance = "SCAN"
	ProvenanceDirect Provenance = "DIRECT"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssistant Role = "assistant"
)

// MessageTemplates holds a tenant's customizable outbound texts. Empty
// fields fall back to the package defaults below.
type MessageTemplates struct {
	Welcome  string `json:"welcome"`
	Positive string `json:"positive"`
	Neutral  string `json:"neutral"`
	Negative string `json:"negative"`
}

// Default outbound texts, used when a tenant has not customized its own.
const (
	DefaultWelcomeText  = "Merci pour votre visite ! Comment s'est passée votre expérience ? Répondez Top, Moyen ou Mauvais."
	DefaultPositiveText = "Merci beaucoup ! 🙏 Cela nous aiderait énormément si vous laissiez un avis ici :"
	DefaultNeutralText  = "Merci pour votre retour. Que pourrions-nous améliorer ?"
	DefaultNegativeText = "Nous sommes désolés que votre expérience n'ait pas été à la hauteur. Pouvez-vous nous en dire plus ?"
)

// Tenant is a business account with its own plan, quota and templates.
type Tenant struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Plan           Plan               `json:"plan"`
	Subscription   SubscriptionStatus `json:"subscription"`
	TrialEndsAt    time.Time          `json:"trial_ends_at"`
	QuotaUsed      int                `json:"quota_used"`
	QuotaLimit     int                `json:"quota_limit"`
	WhatsAppNumber string             `json:"whatsapp_number"`
	OperatorPhone  string             `json:"operator_phone,omitempty"`
	ReviewLink     string             `json:"review_link"`
	Templates      MessageTemplates   `json:"templates"`
}

// WelcomeText returns the tenant's rating prompt text.
func (t *Tenant) WelcomeText() string {
	if t.Templates.Welcome != "" {
		return t.Templates.Welcome
	}
	return DefaultWelcomeText
}

// PositiveText returns the tenant's positive call-to-action text.
func (t *Tenant) PositiveText() string {
	if t.Templates.Positive != "" {
		return t.Templates.Positive
	}
	return DefaultPositiveText
}

// NeutralText returns the tenant's follow-up question text.
func (t *Tenant) NeutralText() string {
	if t.Templates.Neutral != "" {
		return t.Templates.Neutral
	}
	return DefaultNeutralText
}

// NegativeText returns the tenant's apology text.
func (t *Tenant) NegativeText() string {
	if t.Templates.Negative != "" {
		return t.Templates.Negative
	}
	return DefaultNegativeText
}

// Conversation is the ongoing exchange between one tenant and one
// customer address. Exactly one conversation is active per
// (tenant, customer address) pair.
type Conversation struct {
	ID              string             `json:"id"`
	TenantID        string             `json:"tenant_id"`
	CustomerAddress string             `json:"customer_address"`
	CustomerName    string             `json:"customer_name"`
	Provenance      Provenance         `json:"provenance"`
	State           ConversationState  `json:"state"`
	Sentiment       Sentiment          `json:"sentiment"`
	Status          ConversationStatus `json:"status"`
	Language        string             `json:"language,omitempty"`
	AIEnabled       bool               `json:"ai_enabled"`
	Version         int64              `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Message is one entry of a conversation's append-only log.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// InboundEvent is the canonical form of one provider webhook delivery.
type InboundEvent struct {
	From        string     `json:"from"`
	To          string     `json:"to"`
	Body        string     `json:"body"`
	ProfileName string     `json:"profile_name,omitempty"`
	MediaURL    string     `json:"media_url,omitempty"`
	MediaType   string     `json:"media_type,omitempty"`
	MessageSID  string     `json:"message_sid,omitempty"`
	Provenance  Provenance `json:"provenance"`
}

// HasVoiceMedia reports whether the event carries an audio attachment.
func (e InboundEvent) HasVoiceMedia() bool {
	return e.MediaURL != "" && strings.HasPrefix(e.MediaType, "audio")
}
