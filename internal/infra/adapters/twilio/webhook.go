package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"net/url"
	"sort"
	"strings"
)

// SignatureHeader carries Twilio's request signature.
const SignatureHeader = "X-Twilio-Signature"

// Inbound is the part of a Twilio messaging webhook the service uses.
type Inbound struct {
	From      string // "whatsapp:+15551234567"
	Body      string
	MessageID string
}

func ParseInbound(form url.Values) Inbound {
	return Inbound{
		From:      strings.TrimSpace(form.Get("From")),
		Body:      strings.TrimSpace(form.Get("Body")),
		MessageID: form.Get("MessageSid"),
	}
}

// Sign computes the signature Twilio sends for a POST to fullURL:
// base64(HMAC-SHA1(authToken, fullURL + each param name and value in name order)).
func Sign(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		vals := append([]string(nil), params[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	h := hmac.New(sha1.New, []byte(authToken))
	h.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func VerifySignature(authToken, fullURL string, params url.Values, signature string) bool {
	if authToken == "" || signature == "" {
		return false
	}
	expected := Sign(authToken, fullURL, params)
	return hmac.Equal([]byte(expected), []byte(signature))
}

type twiml struct {
	XMLName  xml.Name `xml:"Response"`
	Messages []string `xml:"Message"`
}

// TwiML renders a messaging response. An empty text yields an empty
// <Response/>, which tells Twilio not to reply.
func TwiML(text string) ([]byte, error) {
	r := twiml{}
	if text != "" {
		r.Messages = []string{text}
	}
	out, err := xml.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
