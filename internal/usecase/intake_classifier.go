package usecase

import (
	"strings"
	"unicode/utf8"
)

type IntentKind string

const (
	IntentHelp     IntentKind = "help"
	IntentStatus   IntentKind = "status"
	IntentQueue    IntentKind = "queue"
	IntentExample  IntentKind = "example"
	IntentTooShort IntentKind = "too_short"
	IntentGenerate IntentKind = "generate"
)

// DefaultMinPromptLength is the shortest prompt accepted for generation.
const DefaultMinPromptLength = 10

// Intent is the result of classifying one inbound message.
type Intent struct {
	Kind   IntentKind
	Prompt string // set for IntentGenerate
}

// commandVocabulary is evaluated top to bottom; the first match wins.
var commandVocabulary = []struct {
	kind  IntentKind
	words []string
}{
	{IntentHelp, []string{"/help", "/start", "help"}},
	{IntentStatus, []string{"/status", "status"}},
	{IntentQueue, []string{"/queue", "queue"}},
	{IntentExample, []string{"/examples", "/example", "examples", "example"}},
}

// Classifier maps raw inbound text to an Intent. It has no side effects.
type Classifier struct {
	minLen int
}

func NewClassifier(minPromptLength int) Classifier {
	if minPromptLength <= 0 {
		minPromptLength = DefaultMinPromptLength
	}
	return Classifier{minLen: minPromptLength}
}

func (c Classifier) MinPromptLength() int { return c.minLen }

// Classify matches the first token case-insensitively against the command
// vocabulary, then applies the length check, then defaults to a generation
// request. Slash commands match by prefix ("/helpme", "/statuses"); bare
// words must match whole so "helpful robots" stays a prompt.
// Telegram-style "/cmd@botname" suffixes are ignored.
func (c Classifier) Classify(raw string) Intent {
	text := strings.TrimSpace(raw)
	token := strings.ToLower(firstToken(text))
	if at := strings.IndexByte(token, '@'); at > 0 && strings.HasPrefix(token, "/") {
		token = token[:at]
	}

	for _, cmd := range commandVocabulary {
		for _, w := range cmd.words {
			if token == w || (w[0] == '/' && strings.HasPrefix(token, w)) {
				return Intent{Kind: cmd.kind}
			}
		}
	}
	if utf8.RuneCountInString(text) < c.minLen {
		return Intent{Kind: IntentTooShort}
	}
	return Intent{Kind: IntentGenerate, Prompt: text}
}

func firstToken(s string) string {
	if i := strings.IndexFunc(s, isSpace); i >= 0 {
		return s[:i]
	}
	return s
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
