package usecase

import (
	"context"
	"errors"
	"time"

	"AWSNewsBot/internal/domain"
)

type fakeSource struct {
	items []domain.NewsItem
	err   error
}

func (f *fakeSource) Fetch(context.Context) ([]domain.NewsItem, error) {
	return f.items, f.err
}

type memStore struct {
	records   map[string]domain.ProcessedRecord
	saves     []domain.ProcessedRecord
	emptyErr  error
	existsErr error
	saveErr   error
}

func newMemStore(seedLinks ...string) *memStore {
	s := &memStore{records: map[string]domain.ProcessedRecord{}}
	for _, link := range seedLinks {
		id := domain.NewsID(link)
		s.records[id] = domain.ProcessedRecord{ID: id, Link: link}
	}
	return s
}

func (s *memStore) IsEmpty(context.Context) (bool, error) {
	if s.emptyErr != nil {
		return false, s.emptyErr
	}
	return len(s.records) == 0, nil
}

func (s *memStore) Exists(_ context.Context, id string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.records[id]
	return ok, nil
}

func (s *memStore) Save(_ context.Context, record domain.ProcessedRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[record.ID] = record
	s.saves = append(s.saves, record)
	return nil
}

type fakeExtractor struct {
	bodies map[string]string
	errs   map[string]error
	calls  []string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err := f.errs[url]; err != nil {
		return "", err
	}
	return f.bodies[url], nil
}

type modelReply struct {
	text string
	err  error
}

// scriptedModel replays replies in order and repeats the last one.
type scriptedModel struct {
	replies []modelReply
	prompts []string
}

func (m *scriptedModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if len(m.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	idx := len(m.prompts) - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return m.replies[idx].text, m.replies[idx].err
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.messages = append(n.messages, text)
	return n.err
}

type sleepRecorder struct {
	delays []time.Duration
	err    error
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}
