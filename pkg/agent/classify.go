package agent

import (
	"context"
	"strings"

	"github.com/FengmingYu-tech/JobSyncd/pkg/mail"
)

// Labels assigned by classifiers. LabelOther means no task is created.
const (
	LabelInterview   = "interview"
	LabelOffer       = "offer"
	LabelRejection   = "rejection"
	LabelApplication = "application"
	LabelOther       = "other"
)

// Classification is the verdict for one message.
type Classification struct {
	Label  string `json:"label" yaml:"label"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Relevant reports whether the message is about a job application.
func (c Classification) Relevant() bool {
	return c.Label != "" && c.Label != LabelOther
}

// Classifier decides what a message is about. Model-backed classifiers
// live outside this repository and plug in here.
type Classifier interface {
	Classify(ctx context.Context, m mail.Message) (Classification, error)
}

// KeywordClassifier labels messages by the first rule whose keyword occurs
// in the subject or text.
type KeywordClassifier struct {
	Rules []Rule
}

// Rule maps keywords to a label.
type Rule struct {
	Label    string
	Keywords []string
}

// DefaultRules covers the usual stages of a job application.
func DefaultRules() []Rule {
	return []Rule{
		{LabelOffer, []string{"offer letter", "extend an offer", "pleased to offer", "happy to offer"}},
		{LabelRejection, []string{"unfortunately", "other candidates", "not moving forward", "regret to inform"}},
		{LabelInterview, []string{"interview", "schedule a call", "phone screen", "coding challenge"}},
		{LabelApplication, []string{"application", "applying", "applied"}},
	}
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{Rules: DefaultRules()}
}

func (k *KeywordClassifier) Classify(ctx context.Context, m mail.Message) (Classification, error) {
	if err := ctx.Err(); err != nil {
		return Classification{}, err
	}
	hay := strings.ToLower(m.Subject + "\n" + m.Snippet + "\n" + m.Text)
	for _, r := range k.Rules {
		for _, kw := range r.Keywords {
			if strings.Contains(hay, kw) {
				return Classification{Label: r.Label, Reason: "matched " + kw}, nil
			}
		}
	}
	return Classification{Label: LabelOther}, nil
}
