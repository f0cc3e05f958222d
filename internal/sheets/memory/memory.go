package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"metas/internal/core"
	ports "metas/internal/sheets"
)

var _ ports.Store = (*Store)(nil)

type goalKey struct {
	producerID string
	year       int
}

type Store struct {
	mu        sync.Mutex
	producers []core.Producer
	goals     map[goalKey]core.MonthlyGoal
	quotes    []core.Quote
}

func New(producers []core.Producer) *Store {
	return &Store{producers: dedupeProducers(producers), goals: map[goalKey]core.MonthlyGoal{}}
}

// NewFromFiles seeds producers from <base>/seed_producers.txt, one
// "id;name" per line. Blank lines and # comments are skipped.
func NewFromFiles(base string) *Store {
	var producers []core.Producer
	for _, line := range readLines(filepath.Join(base, "seed_producers.txt")) {
		id, name, _ := strings.Cut(line, ";")
		producers = append(producers, core.Producer{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)})
	}
	return New(producers)
}

// SaveGoal stores the goal, registering its producer when unknown.
func (s *Store) SaveGoal(_ context.Context, g core.MonthlyGoal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[goalKey{g.ProducerID, g.Year}] = g
	for i, p := range s.producers {
		if p.ID == g.ProducerID {
			if g.ProducerName != "" {
				s.producers[i].Name = g.ProducerName
			}
			return nil
		}
	}
	s.producers = append(s.producers, core.Producer{ID: g.ProducerID, Name: g.ProducerName})
	return nil
}

func (s *Store) GetGoal(_ context.Context, producerID string, year int) (core.MonthlyGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalKey{producerID, year}]
	if !ok {
		return core.MonthlyGoal{}, fmt.Errorf("goal %s/%d: %w", producerID, year, ports.ErrNotFound)
	}
	g.ProducerName = s.nameOf(producerID, g.ProducerName)
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, year int) ([]core.MonthlyGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.MonthlyGoal
	for k, g := range s.goals {
		if k.year != year {
			continue
		}
		g.ProducerName = s.nameOf(g.ProducerID, g.ProducerName)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName() != out[j].DisplayName() {
			return out[i].DisplayName() < out[j].DisplayName()
		}
		return out[i].ProducerID < out[j].ProducerID
	})
	return out, nil
}

func (s *Store) ListProducers(_ context.Context) ([]core.Producer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Producer(nil), s.producers...), nil
}

// AddQuote stores the quote and returns a synthetic reference.
func (s *Store) AddQuote(_ context.Context, q core.Quote) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = fmt.Sprintf("mem:%d", len(s.quotes)+1)
	}
	s.quotes = append(s.quotes, q)
	return q.ID, nil
}

func (s *Store) ListQuotes(_ context.Context, year int) ([]core.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Quote
	for _, q := range s.quotes {
		if q.Date.Year() == year {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) nameOf(producerID, fallback string) string {
	for _, p := range s.producers {
		if p.ID == producerID && p.Name != "" {
			return p.Name
		}
	}
	return fallback
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// dedupeProducers drops blank ids and repeated ids, keeping the first.
func dedupeProducers(in []core.Producer) []core.Producer {
	seen := map[string]struct{}{}
	out := make([]core.Producer, 0, len(in))
	for _, p := range in {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
