package webhook

import (
	"errors"
	"net/url"
	"strings"

	"github.com/Sdiabate1337/reput/internal/models"
)

// ErrMalformedPayload is returned when the provider payload is missing
// its required addresses; the caller must reject with a 4xx status and
// nothing is persisted.
var ErrMalformedPayload = errors.New("malformed payload: missing sender or destination address")

// scanRefPrefix marks a body prefilled by the QR deep link.
const scanRefPrefix = "ref:"

// ParseInbound normalizes a raw provider form payload into an
// InboundEvent. It is a pure parse with no side effects.
func ParseInbound(form url.Values) (models.InboundEvent, error) {
	from := strings.TrimSpace(form.Get("From"))
	to := strings.TrimSpace(form.Get("To"))
	if from == "" || to == "" {
		return models.InboundEvent{}, ErrMalformedPayload
	}

	ev := models.InboundEvent{
		From:        from,
		To:          to,
		Body:        strings.TrimSpace(form.Get("Body")),
		ProfileName: strings.TrimSpace(form.Get("ProfileName")),
		MessageSID:  form.Get("MessageSid"),
		Provenance:  models.ProvenanceDirect,
	}

	if n := form.Get("NumMedia"); n != "" && n != "0" {
		ev.MediaURL = form.Get("MediaUrl0")
		ev.MediaType = form.Get("MediaContentType0")
	}

	if isScan(form, ev.Body) {
		ev.Provenance = models.ProvenanceScan
	}
	return ev, nil
}

// isScan detects code-scan origin: either the provider button payload
// says so or the body starts with the QR prefill reference token.
func isScan(form url.Values, body string) bool {
	if strings.EqualFold(strings.TrimSpace(form.Get("ButtonPayload")), "scan") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(body), scanRefPrefix)
}
