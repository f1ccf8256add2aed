// Package chatbot answers questions from a static, keyword-matched knowledge base.
package chatbot

import (
	"io"
	"io/fs"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultResponse is returned when no entry matches the query.
const DefaultResponse = "I'm sorry, I don't have a specific answer for that question. Try asking about:\n" +
	"• Submitting tasks\n• Project guidelines\n• Deadlines\n• Progress tracking\n• Discussion board\n• Finding advisors\n\n" +
	"Or type 'help' for more options!"

var ErrEmptyQuery = errors.New("query is required")

type (
	Entry struct {
		Keywords []string `yaml:"keywords"`
		Response string   `yaml:"response"`
		PDF      string   `yaml:"pdf,omitempty"`
	}

	Answer struct {
		Answer   string  `json:"answer"`
		Response string  `json:"response"`
		PDF      *string `json:"pdf"`
	}

	// Question is the chatbot request body; Question is accepted as an alias of Query.
	Question struct {
		Query    string `json:"query"`
		Question string `json:"question"`
	}

	Bot struct {
		entries []Entry
	}
)

func (q Question) Text() string {
	if s := strings.TrimSpace(q.Query); s != "" {
		return s
	}
	return strings.TrimSpace(q.Question)
}

// NewBot returns a Bot answering from entries, in order.
func NewBot(entries []Entry) *Bot {
	own := make([]Entry, len(entries))
	for i, e := range entries {
		kws := make([]string, len(e.Keywords))
		for j, kw := range e.Keywords {
			kws[j] = strings.ToLower(strings.TrimSpace(kw))
		}
		e.Keywords = kws
		own[i] = e
	}
	return &Bot{entries: own}
}

// Load reads a YAML list of entries.
func Load(r io.Reader) (*Bot, error) {
	var entries []Entry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.Wrap(err, "decoding knowledge base")
	}
	return NewBot(entries), nil
}

// LoadFS reads the YAML knowledge base at path in fsys.
func LoadFS(fsys fs.FS, path string) (*Bot, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening knowledge base")
	}
	defer f.Close()
	return Load(f)
}

// Score rates how well keywords match query: +2 per keyword equal to a whitespace separated word
// of the query, +1 per keyword only contained in the query. Matching is case-insensitive.
func Score(query string, keywords []string) int {
	query = strings.ToLower(query)
	words := make(map[string]struct{})
	for _, w := range strings.Fields(query) {
		words[w] = struct{}{}
	}

	var score int
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if _, ok := words[kw]; ok {
			score += 2
		} else if strings.Contains(query, kw) {
			score++
		}
	}
	return score
}

// Match returns the best scoring entry; the first one wins ties. ok is false when nothing scored.
func (b *Bot) Match(query string) (best Entry, score int, ok bool) {
	for _, e := range b.entries {
		if s := Score(query, e.Keywords); s > score {
			best, score = e, s
		}
	}
	return best, score, score > 0
}

func (b *Bot) Ask(query string) (Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, ErrEmptyQuery
	}
	e, _, ok := b.Match(query)
	if !ok {
		return Answer{Answer: DefaultResponse, Response: DefaultResponse}, nil
	}
	ans := Answer{Answer: e.Response, Response: e.Response}
	if e.PDF != "" {
		pdf := e.PDF
		ans.PDF = &pdf
	}
	return ans, nil
}

// Len returns the number of entries of the knowledge base.
func (b *Bot) Len() int { return len(b.entries) }
