package webhook

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sdiabate1337/reput/internal/models"
)

func validForm() url.Values {
	return url.Values{
		"From":        {"whatsapp:+33600000001"},
		"To":          {"whatsapp:+33100000000"},
		"Body":        {"Top"},
		"ProfileName": {"Awa"},
		"MessageSid":  {"SM123"},
	}
}

func TestParseInbound_Valid(t *testing.T) {
	ev, err := ParseInbound(validForm())
	require.NoError(t, err)
	assert.Equal(t, "whatsapp:+33600000001", ev.From)
	assert.Equal(t, "whatsapp:+33100000000", ev.To)
	assert.Equal(t, "Top", ev.Body)
	assert.Equal(t, "Awa", ev.ProfileName)
	assert.Equal(t, "SM123", ev.MessageSID)
	assert.Equal(t, models.ProvenanceDirect, ev.Provenance)
	assert.Empty(t, ev.MediaURL)
}

func TestParseInbound_MissingAddresses(t *testing.T) {
	form := validForm()
	form.Del("From")
	_, err := ParseInbound(form)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	form = validForm()
	form.Set("To", "   ")
	_, err = ParseInbound(form)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseInbound_OptionalFieldsTolerated(t *testing.T) {
	form := validForm()
	form.Del("ProfileName")
	form.Del("Body")
	ev, err := ParseInbound(form)
	require.NoError(t, err)
	assert.Empty(t, ev.ProfileName)
	assert.Empty(t, ev.Body)
}

func TestParseInbound_Media(t *testing.T) {
	form := validForm()
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://media.example.com/voice/abc")
	form.Set("MediaContentType0", "audio/ogg")

	ev, err := ParseInbound(form)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/voice/abc", ev.MediaURL)
	assert.Equal(t, "audio/ogg", ev.MediaType)
	assert.True(t, ev.HasVoiceMedia())
}

func TestParseInbound_ScanProvenance(t *testing.T) {
	form := validForm()
	form.Set("Body", "ref:chez-fatou")
	ev, err := ParseInbound(form)
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceScan, ev.Provenance)

	form = validForm()
	form.Set("ButtonPayload", "scan")
	ev, err = ParseInbound(form)
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceScan, ev.Provenance)

	// "ref" inside the body is not a scan marker.
	form = validForm()
	form.Set("Body", "je préfère ref:autre chose")
	ev, err = ParseInbound(form)
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceDirect, ev.Provenance)
}
