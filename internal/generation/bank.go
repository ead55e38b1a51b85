package generation

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rbright/candor/internal/interview"
)

// Template is one fallback question with optional {keyword} and {title} slots.
type Template struct {
	Text                    string               `yaml:"text"`
	Category                interview.Category   `yaml:"category"`
	Difficulty              interview.Difficulty `yaml:"difficulty"`
	ExpectedDurationSeconds int                  `yaml:"expectedDurationSeconds"`
}

// Bank is the offline question source: templates plus the keyword vocabulary
// searched for in job descriptions.
type Bank struct {
	Templates  []Template `yaml:"templates"`
	Vocabulary []string   `yaml:"vocabulary"`

	matchers []termMatcher
}

type termMatcher struct {
	term string
	re   *regexp.Regexp
}

const defaultKeyword = "the core technologies in this role"

var defaultTemplates = []Template{
	{
		Text:                    "Walk me through a project where you used {keyword}. What trade-offs did you make and why?",
		Category:                interview.CategoryTechnical,
		Difficulty:              interview.DifficultyMedium,
		ExpectedDurationSeconds: 120,
	},
	{
		Text:                    "Tell me about a time you resolved a disagreement on your team. What did you learn from it?",
		Category:                interview.CategoryBehavioral,
		Difficulty:              interview.DifficultyMedium,
		ExpectedDurationSeconds: 120,
	},
	{
		Text:                    "What part of your experience best prepares you for this {title} role?",
		Category:                interview.CategoryExperience,
		Difficulty:              interview.DifficultyEasy,
		ExpectedDurationSeconds: 90,
	},
	{
		Text:                    "Suppose a critical {keyword} component fails in production right before a release. How would you respond?",
		Category:                interview.CategoryScenario,
		Difficulty:              interview.DifficultyHard,
		ExpectedDurationSeconds: 150,
	},
	{
		Text:                    "Describe a situation where requirements changed late in a project. How did you adapt your plan?",
		Category:                interview.CategorySituational,
		Difficulty:              interview.DifficultyMedium,
		ExpectedDurationSeconds: 120,
	},
	{
		Text:                    "What kind of team environment helps you do your best work?",
		Category:                interview.CategoryCultural,
		Difficulty:              interview.DifficultyEasy,
		ExpectedDurationSeconds: 90,
	},
}

var defaultVocabulary = []string{
	"React", "Angular", "Vue", "Next.js", "Node.js", "TypeScript", "JavaScript",
	"Python", "Golang", "Java", "Kotlin", "Swift", "Rust", "C++", "C#", "Ruby", "PHP",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka", "GraphQL", "REST",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Terraform", "CI/CD",
	"microservices", "distributed systems", "machine learning", "data pipelines",
	"testing", "security", "accessibility", "system design",
	"Agile", "Scrum", "leadership", "mentoring", "stakeholder management",
	"customer support", "sales", "marketing", "product management", "UX",
}

// DefaultBank returns the built-in templates and vocabulary.
func DefaultBank() *Bank {
	b := &Bank{
		Templates:  append([]Template(nil), defaultTemplates...),
		Vocabulary: append([]string(nil), defaultVocabulary...),
	}
	b.matchers = compileVocabulary(b.Vocabulary)
	return b
}

// LoadBank reads a YAML question bank. Missing sections fall back to the built-in ones.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %q: %w", path, err)
	}
	return ParseBank(data)
}

// ParseBank decodes and validates a YAML question bank.
func ParseBank(data []byte) (*Bank, error) {
	b := &Bank{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(b); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	if len(b.Templates) == 0 {
		b.Templates = append([]Template(nil), defaultTemplates...)
	}
	if len(b.Vocabulary) == 0 {
		b.Vocabulary = append([]string(nil), defaultVocabulary...)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.matchers = compileVocabulary(b.Vocabulary)
	return b, nil
}

// Validate checks every template for text, category and difficulty.
func (b *Bank) Validate() error {
	var errs []error
	for i, tmpl := range b.Templates {
		if strings.TrimSpace(tmpl.Text) == "" {
			errs = append(errs, fmt.Errorf("templates[%d]: text is required", i))
		}
		if !tmpl.Category.Valid() {
			errs = append(errs, fmt.Errorf("templates[%d]: unknown category %q", i, tmpl.Category))
		}
		if !tmpl.Difficulty.Valid() {
			errs = append(errs, fmt.Errorf("templates[%d]: unknown difficulty %q", i, tmpl.Difficulty))
		}
		if tmpl.ExpectedDurationSeconds < 0 {
			errs = append(errs, fmt.Errorf("templates[%d]: expectedDurationSeconds must be >= 0", i))
		}
	}
	for i, term := range b.Vocabulary {
		if strings.TrimSpace(term) == "" {
			errs = append(errs, fmt.Errorf("vocabulary[%d]: empty term", i))
		}
	}
	return errors.Join(errs...)
}

func compileVocabulary(vocabulary []string) []termMatcher {
	out := make([]termMatcher, 0, len(vocabulary))
	for _, term := range vocabulary {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		pattern := `(?i)(?:^|[^\p{L}\p{N}])(` + regexp.QuoteMeta(term) + `)(?:[^\p{L}\p{N}+#]|$)`
		out = append(out, termMatcher{term: term, re: regexp.MustCompile(pattern)})
	}
	return out
}

// Keywords returns vocabulary terms found in text, ordered by first appearance.
func (b *Bank) Keywords(text string) []string {
	matchers := b.matchers
	if matchers == nil {
		matchers = compileVocabulary(b.Vocabulary)
	}
	type hit struct {
		term string
		pos  int
	}
	var hits []hit
	for _, m := range matchers {
		loc := m.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		hits = append(hits, hit{term: m.term, pos: loc[2]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		key := strings.ToLower(h.term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h.term)
	}
	return out
}
