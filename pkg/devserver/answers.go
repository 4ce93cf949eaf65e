package devserver

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Answer is a canned reply served when a question mentions one of its
// keywords.
type Answer struct {
	Keywords []string `yaml:"keywords"`
	Target   string   `yaml:"target"`
	Context  string   `yaml:"context"`
	Response string   `yaml:"response"`
}

// AnswerBook is the content of an --answers file:
//
//	fallback: "I only know about chocolate."
//	answers:
//	  - keywords: [kitkat, "kit kat"]
//	    target: vector
//	    response: "Have a break, have a KitKat."
type AnswerBook struct {
	Fallback string   `yaml:"fallback"`
	Answers  []Answer `yaml:"answers"`
}

func LoadAnswers(path string) (*AnswerBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read answers file %s", path)
	}
	book, err := ParseAnswers(data)
	if err != nil {
		return nil, errors.Wrapf(err, "answers file %s", path)
	}
	return book, nil
}

func ParseAnswers(data []byte) (*AnswerBook, error) {
	var book AnswerBook
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, errors.Wrap(err, "parse answers")
	}
	for i, a := range book.Answers {
		if len(a.Keywords) == 0 {
			return nil, errors.Errorf("answer %d has no keywords", i)
		}
		if strings.TrimSpace(a.Response) == "" {
			return nil, errors.Errorf("answer %d has no response", i)
		}
		for j, k := range a.Keywords {
			book.Answers[i].Keywords[j] = strings.ToLower(strings.TrimSpace(k))
		}
		if a.Target == "" {
			book.Answers[i].Target = "vector"
		}
	}
	return &book, nil
}

// Lookup returns the first answer with a keyword contained in question.
func (b *AnswerBook) Lookup(question string) (Answer, bool) {
	if b == nil {
		return Answer{}, false
	}
	q := strings.ToLower(question)
	for _, a := range b.Answers {
		for _, k := range a.Keywords {
			if k != "" && strings.Contains(q, k) {
				return a, true
			}
		}
	}
	return Answer{}, false
}
