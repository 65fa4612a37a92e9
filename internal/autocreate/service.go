package autocreate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"practicepad/internal/chart"
	"practicepad/internal/contextutil"
	"practicepad/internal/storage"
)

// Service runs the autocreate pipeline: validate, classify, extract,
// persist. At most one job may run per item at a time; a second request
// for the same item fails with ErrJobAlreadyInProgress, and running
// jobs can be cancelled by item ID.
type Service struct {
	extractor   Extractor
	transcripts TranscriptFetcher
	dispatch    *Dispatcher
	persister   *Persister
	limits      Limits

	strategies map[Category]Strategy

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// NewService wires the pipeline over its collaborators.
func NewService(charts storage.ChartStore, commons storage.CommonChordStore, invoker ModelInvoker, extractor Extractor, transcripts TranscriptFetcher, limits Limits) *Service {
	dispatch := NewDispatcher(invoker)
	return &Service{
		extractor:   extractor,
		transcripts: transcripts,
		dispatch:    dispatch,
		persister:   NewPersister(charts),
		limits:      limits,
		strategies: map[Category]Strategy{
			CategoryChordCharts: &visualStrategy{dispatch: dispatch},
			CategoryChordNames: &chordNamesStrategy{
				commons:  commons,
				dispatch: dispatch,
				tuning:   chart.DefaultTuning,
			},
			CategoryTablature: &tablatureStrategy{dispatch: dispatch},
		},
		inflight: map[string]context.CancelFunc{},
	}
}

// acquire registers an in-flight job for the item and returns a context
// that Cancel aborts. The release func must be called when the job ends.
func (s *Service) acquire(ctx context.Context, itemID string) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[itemID]; busy {
		return nil, nil, fmt.Errorf("%w: item %s", ErrJobAlreadyInProgress, itemID)
	}
	jobCtx, cancel := context.WithCancel(ctx)
	s.inflight[itemID] = cancel

	release := func() {
		s.mu.Lock()
		delete(s.inflight, itemID)
		s.mu.Unlock()
		cancel()
	}
	return jobCtx, release, nil
}

// Cancel aborts the running autocreate job for an item, if any. Reports
// whether a job was found. A cancelled job leaves the store untouched.
func (s *Service) Cancel(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, ok := s.inflight[itemID]
	if ok {
		cancel()
	}
	return ok
}

// Running reports whether an autocreate job is in flight for the item.
func (s *Service) Running(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[itemID]
	return ok
}

// localTexts runs local extraction over the files, best effort. A file
// that cannot be read locally contributes an empty string; extraction
// failure is never fatal, it just forces the remote path.
func (s *Service) localTexts(ctx context.Context, files []File) []string {
	texts := make([]string, len(files))
	for i, f := range files {
		if text, ok := textualFile(f); ok {
			texts[i] = text
			continue
		}
		if s.extractor == nil {
			continue
		}
		text, err := s.extractor.Extract(ctx, f.Name, f.Data)
		if err != nil {
			contextutil.LoggerFromContext(ctx).DebugContext(ctx, "local extraction failed",
				slog.String("file", f.Name), slog.String("error", err.Error()))
			continue
		}
		texts[i] = text
	}
	return texts
}

// classify settles the content category for the job, honoring an
// explicit override above all heuristics.
func classify(in Inputs, localTexts []string, override Category) (Category, error) {
	if override != "" {
		if !knownCategory(override) {
			return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, override)
		}
		return override, nil
	}

	var cls Classification
	if in.Text != "" {
		cls = ClassifyText(in.Text)
	} else {
		perFile := make([]Classification, len(in.Files))
		for i, f := range in.Files {
			var text string
			if i < len(localTexts) {
				text = localTexts[i]
			}
			perFile[i] = ClassifyFile(f, text)
		}
		cls = mergeClassifications(perFile)
	}

	if !cls.Confident {
		return "", &AmbiguityError{Candidates: cls.Candidates}
	}
	return cls.Category, nil
}

// RunAutocreate executes the whole pipeline for one item and returns
// the persisted result. override, when non-empty, skips classification.
func (s *Service) RunAutocreate(ctx context.Context, itemID string, in Inputs, intent Intent, override Category) (*Result, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: item ID is required", ErrInvalidInput)
	}
	if n := in.modalityCount(); n != 1 {
		return nil, fmt.Errorf("%w: exactly one of files, text or YouTube URL is required, got %d", ErrInvalidInput, n)
	}
	switch intent {
	case IntentAppend, IntentReplaceAll:
	default:
		return nil, fmt.Errorf("%w: unknown intent %q", ErrInvalidInput, intent)
	}
	if err := s.limits.Validate(in); err != nil {
		return nil, err
	}

	jobCtx, release, err := s.acquire(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer release()

	logger := contextutil.LoggerFromContext(ctx)

	// A transcript becomes the job text. It is fetched, not typed, so
	// the manual text length limit does not apply to it.
	if in.YouTubeURL != "" {
		text, err := s.transcripts.Fetch(jobCtx, in.YouTubeURL)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrTranscriptUnavailable, err)
		}
		in.Text = text
		in.YouTubeURL = ""
	}

	localTexts := s.localTexts(jobCtx, in.Files)

	category, err := classify(in, localTexts, override)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "autocreate job classified",
		slog.String("item_id", itemID),
		slog.String("category", string(category)),
		slog.String("intent", string(intent)),
		slog.Int("files", len(in.Files)))

	strategy := s.strategies[category]
	sections, err := strategy.Run(jobCtx, Job{
		ItemID:     itemID,
		Category:   category,
		Files:      in.Files,
		LocalTexts: localTexts,
		Text:       in.Text,
	})
	if err != nil {
		return nil, err
	}
	if sections.ChartCount() == 0 {
		return nil, fmt.Errorf("%w: no chords recognized in the input", ErrAutocreateProcessingFailed)
	}

	// Persist with the request context, not the job context: once
	// extraction finished, a racing cancel must not interrupt the write.
	result, err := s.persister.Persist(ctx, itemID, sections, intent)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "autocreate job persisted",
		slog.String("item_id", itemID),
		slog.Int("charts", len(result.Sections.Charts())))
	return result, nil
}
