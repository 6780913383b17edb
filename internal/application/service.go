package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/AkatukiSora/hhreplay/internal/parser"
	"github.com/AkatukiSora/hhreplay/internal/persistence"
	"github.com/AkatukiSora/hhreplay/internal/replay"
)

var (
	// ErrHandNotFound is returned when no stored hand has the requested UID.
	ErrHandNotFound = errors.New("hand not found")
	// ErrNoHands is returned when the library holds no hands.
	ErrNoHands = errors.New("no hands imported")
)

// Service imports hand histories into a repository and serves them back for
// listing and replay.
type Service struct {
	repo    persistence.ImportRepository
	clock   quartz.Clock
	workers int
}

type Option func(*Service)

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock replaces the clock used to stamp import runs.
func WithClock(c quartz.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func NewService(repo persistence.ImportRepository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		clock:   quartz.NewReal(),
		workers: min(max(runtime.GOMAXPROCS(0), 1), 4),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportResult is the outcome of importing one source.
type ImportResult struct {
	Path   string
	Hands  int
	Result persistence.UpsertResult
	// Unchanged is set when the file was skipped because its cursor shows it
	// was already imported in full.
	Unchanged bool
}

// ImportProgress is reported after each file is written.
type ImportProgress struct {
	// Current is the 1-based index of the file just written.
	Current int
	Total   int
	Path    string
}

// ImportText parses text and stores every hand under source.
func (s *Service) ImportText(ctx context.Context, source, text string) (ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return ImportResult{}, err
	}
	hands := persistedHands(source, text)
	res := ImportResult{Path: source, Hands: len(hands)}

	run := persistence.NewImportRun(source, s.clock.Now())
	up, err := s.repo.UpsertHands(ctx, hands)
	s.finishRun(ctx, run, up, err)
	if err != nil {
		return res, fmt.Errorf("import %s: %w", source, err)
	}
	res.Result = up
	slog.Info("imported hand history text", "source", source, "hands", len(hands), "inserted", up.Inserted, "updated", up.Updated)
	return res, nil
}

// ImportFile imports a single file. A file whose size and modification time
// match a fully imported cursor is skipped. Otherwise the whole file is
// parsed again; hand UIDs are content hashes, so repeats become updates.
func (s *Service) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	parsed, err := s.parseFile(ctx, path)
	if err != nil {
		return ImportResult{Path: path}, err
	}
	return s.writeParsed(ctx, parsed)
}

// ImportFiles parses paths concurrently and writes them one at a time in
// the given order. onProgress may be nil.
func (s *Service) ImportFiles(ctx context.Context, paths []string, onProgress func(ImportProgress)) ([]ImportResult, error) {
	parsed := make([]parsedFile, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			pf, err := s.parseFile(gctx, path)
			if err != nil {
				return err
			}
			parsed[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]ImportResult, 0, len(paths))
	for i, pf := range parsed {
		res, err := s.writeParsed(ctx, pf)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if onProgress != nil {
			onProgress(ImportProgress{Current: i + 1, Total: len(paths), Path: pf.path})
		}
	}
	return results, nil
}

// BootstrapDir imports every file in dir matching pattern, oldest first.
func (s *Service) BootstrapDir(ctx context.Context, dir, pattern string, onProgress func(ImportProgress)) ([]ImportResult, error) {
	paths, err := ListSourceFiles(dir, pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no hand history files matching %q in %s", pattern, dir)
	}
	slog.Info("bootstrapping hand history import", "dir", dir, "files", len(paths), "workers", s.workers)
	return s.ImportFiles(ctx, paths, onProgress)
}

// ListSourceFiles returns the regular files in dir matching pattern, ordered
// by modification time ascending.
func ListSourceFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	type entry struct {
		path string
		mod  int64
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, entry{path: m, mod: info.ModTime().UnixNano()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].mod != entries[j].mod {
			return entries[i].mod < entries[j].mod
		}
		return entries[i].path < entries[j].path
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out, nil
}

// ListHands returns a page of hand summaries and the total match count.
func (s *Service) ListHands(ctx context.Context, f persistence.HandFilter) ([]persistence.HandSummary, int, error) {
	return s.repo.ListHandSummaries(ctx, f)
}

// Hands returns full hands matching f, newest first.
func (s *Service) Hands(ctx context.Context, f persistence.HandFilter) ([]*parser.Hand, error) {
	return s.repo.ListHands(ctx, f)
}

// GetHand returns the stored hand with the given UID.
func (s *Service) GetHand(ctx context.Context, uid string) (*parser.Hand, error) {
	h, err := s.repo.GetHandByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrHandNotFound, uid)
	}
	return h, nil
}

// LatestHand returns the newest stored hand.
func (s *Service) LatestHand(ctx context.Context) (*parser.Hand, error) {
	hands, err := s.repo.ListHands(ctx, persistence.HandFilter{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(hands) == 0 {
		return nil, ErrNoHands
	}
	return hands[0], nil
}

// NewReplay opens a replay session on the hand with the given UID, or on the
// newest hand when uid is empty.
func (s *Service) NewReplay(ctx context.Context, uid string, opts ...replay.SessionOption) (*replay.Session, error) {
	var (
		h   *parser.Hand
		err error
	)
	if uid == "" {
		h, err = s.LatestHand(ctx)
	} else {
		h, err = s.GetHand(ctx, uid)
	}
	if err != nil {
		return nil, err
	}
	return replay.NewSession(h, opts...), nil
}

// ImportRuns returns the most recent import runs.
func (s *Service) ImportRuns(ctx context.Context, limit int) ([]persistence.ImportRun, error) {
	return s.repo.ListImportRuns(ctx, limit)
}

// parsedFile holds the parse stage output for one file. It does not touch
// the repository.
type parsedFile struct {
	path      string
	info      os.FileInfo
	hands     []persistence.PersistedHand
	unchanged bool
}

func (s *Service) parseFile(ctx context.Context, path string) (parsedFile, error) {
	pf := parsedFile{path: path}
	if err := ctx.Err(); err != nil {
		return pf, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return pf, fmt.Errorf("stat %s: %w", path, err)
	}
	pf.info = info

	cursor, err := s.repo.GetCursor(ctx, path)
	if err != nil {
		return pf, fmt.Errorf("get cursor %s: %w", path, err)
	}
	if cursor.Unchanged(info.Size(), info.ModTime()) {
		slog.Debug("skipping fully-imported file", "path", path)
		pf.unchanged = true
		return pf, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return pf, fmt.Errorf("read %s: %w", path, err)
	}
	pf.hands = persistedHands(path, string(data))
	return pf, nil
}

func (s *Service) writeParsed(ctx context.Context, pf parsedFile) (ImportResult, error) {
	res := ImportResult{Path: pf.path, Hands: len(pf.hands), Unchanged: pf.unchanged}
	if pf.unchanged {
		return res, nil
	}

	cursor := persistence.ImportCursor{
		SourcePath:      pf.path,
		NextByteOffset:  pf.info.Size(),
		FileSize:        pf.info.Size(),
		ModTime:         pf.info.ModTime(),
		IsFullyImported: true,
		UpdatedAt:       s.clock.Now(),
	}
	if len(pf.hands) > 0 {
		cursor.LastHandUID = pf.hands[len(pf.hands)-1].Source.HandUID
	}

	run := persistence.NewImportRun(pf.path, s.clock.Now())
	up, err := s.repo.SaveImportBatch(ctx, pf.hands, cursor)
	s.finishRun(ctx, run, up, err)
	if err != nil {
		return res, fmt.Errorf("save import batch %s: %w", pf.path, err)
	}
	res.Result = up
	slog.Info("imported hand history file", "path", pf.path, "hands", len(pf.hands), "inserted", up.Inserted, "updated", up.Updated)
	return res, nil
}

func (s *Service) finishRun(ctx context.Context, run persistence.ImportRun, up persistence.UpsertResult, importErr error) {
	run.FinishedAt = s.clock.Now()
	run.Result = up
	if importErr != nil {
		run.Err = importErr.Error()
	}
	if err := s.repo.RecordImportRun(ctx, run); err != nil {
		slog.Warn("failed to record import run", "source", run.SourcePath, "error", err)
	}
}

// persistedHands splits text into blocks and parses each one, recording the
// byte span of the block within the normalised text. Hands come back in text
// order.
func persistedHands(source, text string) []persistence.PersistedHand {
	norm := parser.Normalize(text)
	var out []persistence.PersistedHand
	offset := 0
	for _, block := range parser.SplitBlocks(norm) {
		start := offset
		if i := strings.Index(norm[offset:], block); i >= 0 {
			start = offset + i
		}
		end := start + len(block)
		offset = end

		h := parser.ParseBlock(block)
		if h == nil {
			continue
		}
		out = append(out, persistence.PersistedHand{
			Hand: h,
			Source: persistence.HandSourceRef{
				SourcePath: source,
				StartByte:  int64(start),
				EndByte:    int64(end),
				HandUID:    parser.HandUID(h),
			},
		})
	}
	return out
}
