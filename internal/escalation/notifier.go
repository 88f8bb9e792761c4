package escalation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Sdiabate1337/reput/internal/dispatcher"
	"github.com/Sdiabate1337/reput/internal/metrics"
	"github.com/Sdiabate1337/reput/internal/models"
)

// Notifier alerts a tenant's operator about negative or critical
// feedback. It is strictly best-effort: every failure is logged and
// swallowed so escalation can never block the customer-facing flow.
type Notifier struct {
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger
}

func NewNotifier(d dispatcher.Dispatcher, logger *zap.Logger) *Notifier {
	return &Notifier{dispatcher: d, logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, tenant *models.Tenant, conv *models.Conversation, excerpt string) {
	if tenant.OperatorPhone == "" {
		metrics.Escalations.WithLabelValues("skipped").Inc()
		return
	}

	name := conv.CustomerName
	if name == "" {
		name = conv.CustomerAddress
	}
	body := fmt.Sprintf("⚠️ %s : retour négatif de %s (conversation %s)", tenant.Name, name, conv.ID)
	if excerpt != "" {
		body += fmt.Sprintf("\n« %s »", excerpt)
	}

	if err := n.dispatcher.SendFreeform(ctx, tenant.OperatorPhone, body); err != nil {
		n.logger.Error("Failed to send escalation alert",
			zap.Error(err),
			zap.String("tenant_id", tenant.ID),
			zap.String("conversation_id", conv.ID))
		metrics.Escalations.WithLabelValues("failed").Inc()
		return
	}
	metrics.Escalations.WithLabelValues("sent").Inc()
}
