// Package babble emits prose as log lines for exercising the viewer:
// most lines carry the usual bracketed header, and roughly one in six
// is bare text with no header at all.
package babble

import (
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/architect-xyz/logterm/pkg/logformat"
)

//go:embed babble.txt
var corpus string

var sentenceEnd = regexp.MustCompile(`[.!?"]\s+|\n\n`)

// Sentences splits the embedded corpus into trimmed one-line
// sentences, dropping fragments too short to be interesting.
func Sentences() []string {
	var out []string
	for _, s := range sentenceEnd.Split(corpus, -1) {
		s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
		if len(s) > 10 {
			out = append(out, s)
		}
	}
	return out
}

// Generator produces log lines from the corpus, cycling through its
// sentences.
type Generator struct {
	rng       *rand.Rand
	sentences []string
	next      int
}

// New creates a generator. The seed fixes the level and target
// choices, useful for reproducible output.
func New(seed int64) *Generator {
	return &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		sentences: Sentences(),
	}
}

// Line formats the next sentence as a log line stamped with now.
// About one line in six comes out bare.
func (g *Generator) Line(now time.Time) string {
	sentence := g.sentences[g.next%len(g.sentences)]
	g.next++

	roll := g.rng.Intn(6)
	if roll == 0 {
		return sentence
	}
	level := logformat.Level(roll - 1)
	target := fmt.Sprintf("s%d", g.rng.Intn(10))
	return fmt.Sprintf("[%s %s %s] %s",
		now.UTC().Format(time.RFC3339), level, target, sentence)
}

// WriteLines writes n lines to w, each stamped with now().
func (g *Generator) WriteLines(w io.Writer, n int, now func() time.Time) error {
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintln(w, g.Line(now())); err != nil {
			return err
		}
	}
	return nil
}
