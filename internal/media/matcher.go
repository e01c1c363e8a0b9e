package media

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/model"
)

var stepLineRe = regexp.MustCompile(`^(\d+)\.\s+(.*)`)

// stepNumberBonus rewards pool contexts that are themselves numbered
// with the step being matched. HTML sections are often pre-numbered, so
// an aligned number is strong evidence.
const stepNumberBonus = 0.2

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "your": {}, "this": {}, "that": {},
	"with": {}, "from": {}, "they": {}, "will": {}, "have": {}, "has": {},
	"was": {}, "were": {}, "been": {}, "then": {}, "them": {}, "there": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "how": {}, "into": {},
	"onto": {}, "also": {}, "should": {}, "would": {}, "could": {}, "may": {},
	"any": {}, "each": {}, "more": {}, "some": {}, "such": {}, "than": {},
	"its": {}, "about": {}, "after": {}, "before": {}, "make": {}, "sure": {},
}

var defaultKeywords = []string{
	"click", "select", "settings", "button", "menu", "tab", "icon",
	"password", "account", "login", "logout", "install", "download",
	"upload", "open", "save", "delete", "enter", "email", "restart",
	"update", "configure", "enable", "disable", "browser", "screen",
	"window", "dialog", "field", "checkbox", "dropdown", "link",
}

// Matcher aligns an answer's numbered steps with the best-fitting image
// from the media pool. Scores favour recall: a plausible-but-imperfect
// illustration beats none, since a wrong image is obvious and harmless.
type Matcher struct {
	threshold float64
	maxImages int
	keywords  map[string]struct{}
}

func NewMatcher(cfg config.MatcherConfig) *Matcher {
	words := cfg.Keywords
	if len(words) == 0 {
		words = defaultKeywords
	}
	keywords := make(map[string]struct{}, len(words))
	for _, w := range words {
		keywords[strings.ToLower(w)] = struct{}{}
	}
	return &Matcher{
		threshold: cfg.ScoreThreshold,
		maxImages: cfg.MaxImages,
		keywords:  keywords,
	}
}

// MatchSteps parses numbered steps out of the answer text and binds each
// to at most one image from the pool. An image is consumed on binding
// and never reused; total bindings are capped.
func (m *Matcher) MatchSteps(answer string, pool *model.MediaPool) []model.StepBinding {
	steps := parseSteps(answer)
	if len(steps) == 0 || pool.Len() == 0 {
		return nil
	}
	consumed := make(map[string]struct{})
	var bindings []model.StepBinding
	bound := 0
	for _, step := range steps {
		if bound >= m.maxImages {
			break
		}
		best, score := m.bestCandidate(step, pool, consumed)
		if best == nil || score < m.threshold {
			continue
		}
		consumed[best.Ref.URL] = struct{}{}
		ref := best.Ref
		bindings = append(bindings, model.StepBinding{
			StepNumber: step.number,
			StepText:   step.text,
			Media:      &ref,
		})
		bound++
	}
	return bindings
}

type step struct {
	number int
	text   string
}

func parseSteps(answer string) []step {
	var steps []step
	for _, line := range strings.Split(answer, "\n") {
		match := stepLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		steps = append(steps, step{number: number, text: match[2]})
	}
	return steps
}

func (m *Matcher) bestCandidate(s step, pool *model.MediaPool, consumed map[string]struct{}) (*model.PoolItem, float64) {
	stepWords := m.tokenize(s.text)
	if len(stepWords) == 0 {
		return nil, 0
	}
	var best *model.PoolItem
	bestScore := 0.0
	items := pool.Items()
	for i := range items {
		item := &items[i]
		if item.Ref.Kind != model.MediaKindImage {
			continue
		}
		if _, ok := consumed[item.Ref.URL]; ok {
			continue
		}
		score := m.score(s, stepWords, item.Context)
		if score > bestScore {
			best = item
			bestScore = score
		}
	}
	return best, bestScore
}

func (m *Matcher) score(s step, stepWords map[string]struct{}, context string) float64 {
	contextWords := m.tokenize(context)
	weighted := 0.0
	for word := range stepWords {
		if _, ok := contextWords[word]; !ok {
			continue
		}
		if _, domain := m.keywords[word]; domain {
			weighted += 2
		} else {
			weighted++
		}
	}
	score := weighted / float64(len(stepWords))
	if contextStepNumber(context) == s.number {
		score += stepNumberBonus
	}
	return score
}

func contextStepNumber(context string) int {
	match := stepLineRe.FindStringSubmatch(strings.TrimSpace(context))
	if match == nil {
		return 0
	}
	number, _ := strconv.Atoi(match[1])
	return number
}

// tokenize lowercases and keeps alphanumeric words longer than two
// characters, minus stopwords.
func (m *Matcher) tokenize(text string) map[string]struct{} {
	words := make(map[string]struct{})
	var sb strings.Builder
	flush := func() {
		word := sb.String()
		sb.Reset()
		if len(word) <= 2 {
			return
		}
		if _, stop := stopwords[word]; stop {
			return
		}
		words[word] = struct{}{}
	}
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return words
}
