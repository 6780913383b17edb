package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/AkatukiSora/hhreplay/internal/application"
	"github.com/AkatukiSora/hhreplay/internal/parser"
	"github.com/AkatukiSora/hhreplay/internal/persistence"
	"github.com/AkatukiSora/hhreplay/internal/phh"
	"github.com/AkatukiSora/hhreplay/internal/ranges"
	"github.com/AkatukiSora/hhreplay/internal/replay"
	"github.com/AkatukiSora/hhreplay/internal/report"
	"github.com/AkatukiSora/hhreplay/internal/stats"
	"github.com/AkatukiSora/hhreplay/internal/watcher"
)

// ParseCmd parses a file without touching the library.
type ParseCmd struct {
	File    string `arg:"" help:"Hand-history text file (- for stdin)"`
	Summary bool   `help:"Print a one-line summary per hand instead of full hands"`
	Limit   int    `help:"Maximum number of hands to print (0 = all)"`
}

func (cmd *ParseCmd) Run(g *Globals) error {
	text, err := readText(cmd.File)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	worker := application.NewParseWorker()
	defer worker.Stop()
	res, ok := <-worker.Submit(ctx, text)
	if !ok {
		return nil
	}
	hands := res.Hands
	if len(hands) == 0 {
		return fmt.Errorf("no hands found in %s", cmd.File)
	}
	if cmd.Limit > 0 && cmd.Limit < len(hands) {
		hands = hands[:cmd.Limit]
	}

	if cmd.Summary {
		rows := make([]persistence.HandSummary, len(hands))
		for i, h := range hands {
			rows[i] = persistence.Summarize(parser.HandUID(h), h)
		}
		return report.HandList(os.Stdout, rows, len(rows))
	}
	for _, h := range hands {
		if err := report.Hand(os.Stdout, h); err != nil {
			return err
		}
	}
	return nil
}

// ImportCmd imports files, or every matching file of a directory.
type ImportCmd struct {
	Paths   []string `arg:"" optional:"" help:"Files or one directory (defaults to the configured hands directory)" type:"path"`
	Pattern string   `help:"File glob used for directories (defaults to config)"`
	Quiet   bool     `short:"q" help:"Do not show a progress bar"`
}

func (cmd *ImportCmd) Run(g *Globals) error {
	svc, closeSvc, err := g.openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	ctx, stop := signalContext()
	defer stop()

	paths, err := cmd.resolve(g)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	onProgress := func(application.ImportProgress) {}
	if !cmd.Quiet {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("importing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		onProgress = func(p application.ImportProgress) {
			_ = bar.Set(p.Current)
		}
	}

	start := time.Now()
	results, err := svc.ImportFiles(ctx, paths, onProgress)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return exitOnCancel(err)
	}

	var total persistence.UpsertResult
	unchanged := 0
	for _, r := range results {
		total.Inserted += r.Result.Inserted
		total.Updated += r.Result.Updated
		total.Skipped += r.Result.Skipped
		if r.Unchanged {
			unchanged++
		}
	}
	fmt.Printf("%d files (%d unchanged): %d inserted, %d updated, %d skipped in %s\n",
		len(results), unchanged, total.Inserted, total.Updated, total.Skipped, time.Since(start).Round(time.Millisecond))
	return nil
}

func (cmd *ImportCmd) resolve(g *Globals) ([]string, error) {
	pattern := cmd.Pattern
	if pattern == "" {
		pattern = g.cfg.HandsPattern
	}
	paths := cmd.Paths
	if len(paths) == 0 {
		paths = []string{g.cfg.HandsDir}
	}
	if len(paths) == 1 {
		if info, err := os.Stat(paths[0]); err == nil && info.IsDir() {
			files, err := application.ListSourceFiles(paths[0], pattern)
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				return nil, fmt.Errorf("no files matching %q in %s", pattern, paths[0])
			}
			return files, nil
		}
	}
	return paths, nil
}

// WatchCmd bootstraps a directory and then imports files as they change.
type WatchCmd struct {
	Dir     string `arg:"" optional:"" help:"Hand-history directory (defaults to config)" type:"path"`
	Pattern string `help:"File glob (defaults to config)"`
}

func (cmd *WatchCmd) Run(g *Globals) error {
	dir := cmd.Dir
	if dir == "" {
		dir = g.cfg.HandsDir
	}
	pattern := cmd.Pattern
	if pattern == "" {
		pattern = g.cfg.HandsPattern
	}

	svc, closeSvc, err := g.openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	ctx, stop := signalContext()
	defer stop()

	if _, err := svc.BootstrapDir(ctx, dir, pattern, nil); err != nil {
		slog.Warn("initial import failed", "dir", dir, "error", err)
	}

	changed := make(chan string, 16)
	dw, err := watcher.NewDirWatcher(dir, watcher.Config{
		Pattern:      pattern,
		PollInterval: g.cfg.PollInterval,
		OnChange: func(path string) {
			select {
			case changed <- path:
			case <-ctx.Done():
			}
		},
	})
	if err != nil {
		return err
	}
	if err := dw.Start(); err != nil {
		return err
	}
	defer dw.Stop()

	fmt.Printf("watching %s for %s (ctrl-c to stop)\n", dir, pattern)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changed:
			res, err := svc.ImportFile(ctx, path)
			if err != nil {
				slog.Error("import failed", "path", path, "error", err)
				continue
			}
			if res.Unchanged {
				continue
			}
			fmt.Printf("%s: %d inserted, %d updated\n", filepath.Base(path), res.Result.Inserted, res.Result.Updated)
		}
	}
}

// ListCmd prints stored hands.
type ListCmd struct {
	Player   string `help:"Only hands this player was dealt into"`
	Table    string `help:"Only hands from this table"`
	HeroOnly bool   `name:"hero-only" help:"Only hands with a hero"`
	Limit    int    `default:"20" help:"Page size (0 = all)"`
	Offset   int    `help:"Rows to skip"`
}

func (cmd *ListCmd) Run(g *Globals) error {
	svc, closeSvc, err := g.openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	rows, total, err := svc.ListHands(context.Background(), cmd.filter())
	if err != nil {
		return err
	}
	return report.HandList(os.Stdout, rows, total)
}

func (cmd *ListCmd) filter() persistence.HandFilter {
	return persistence.HandFilter{
		Player:   cmd.Player,
		Table:    cmd.Table,
		HeroOnly: cmd.HeroOnly,
		Limit:    cmd.Limit,
		Offset:   cmd.Offset,
	}
}

// ShowCmd prints one stored hand.
type ShowCmd struct {
	UID string `arg:"" optional:"" help:"Hand UID (defaults to the newest hand)"`
}

func (cmd *ShowCmd) Run(g *Globals) error {
	svc, closeSvc, err := g.openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	h, err := loadHand(context.Background(), svc, cmd.UID)
	if err != nil {
		return err
	}
	return report.Hand(os.Stdout, h)
}

// ReplayCmd steps through a stored hand, or a hand parsed from a file.
type ReplayCmd struct {
	UID      string        `arg:"" optional:"" help:"Hand UID (defaults to the newest hand)"`
	File     string        `short:"f" help:"Replay the first hand of this file instead of the library" type:"path"`
	Steps    int           `help:"Number of forward steps to print (0 = to the end)"`
	Autoplay bool          `help:"Step on a timer instead of printing every step at once"`
	Interval time.Duration `help:"Autoplay interval (defaults to config)"`
}

func (cmd *ReplayCmd) Run(g *Globals) error {
	interval := cmd.Interval
	if interval <= 0 {
		interval = g.cfg.AutoplayInterval
	}
	ctx, stop := signalContext()
	defer stop()

	h, closeSvc, err := cmd.hand(ctx, g)
	if err != nil {
		return err
	}
	defer closeSvc()

	if err := report.Hand(os.Stdout, h); err != nil {
		return err
	}

	if !cmd.Autoplay {
		sess := replay.NewSession(h)
		st := sess.State()
		_ = report.State(os.Stdout, st)
		for i := 0; cmd.Steps <= 0 || i < cmd.Steps; i++ {
			if replay.Finished(st) {
				break
			}
			st = sess.Next()
			_ = report.State(os.Stdout, st)
		}
		return nil
	}

	done := make(chan struct{}, 1)
	var sess *replay.Session
	sess = replay.NewSession(h,
		replay.WithInterval(interval),
		replay.WithOnStep(func(st replay.State) {
			_ = report.State(os.Stdout, st)
			if !sess.Playing() {
				select {
				case done <- struct{}{}:
				default:
				}
			}
		}),
	)
	_ = report.State(os.Stdout, sess.State())
	sess.Play()
	defer sess.Stop()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return nil
}

func (cmd *ReplayCmd) hand(ctx context.Context, g *Globals) (*parser.Hand, func(), error) {
	if cmd.File != "" {
		hands, err := readHands(cmd.File)
		if err != nil {
			return nil, nil, err
		}
		if len(hands) == 0 {
			return nil, nil, fmt.Errorf("no hands found in %s", cmd.File)
		}
		return hands[0], func() {}, nil
	}
	svc, closeSvc, err := g.openService()
	if err != nil {
		return nil, nil, err
	}
	h, err := loadHand(ctx, svc, cmd.UID)
	if err != nil {
		closeSvc()
		return nil, nil, err
	}
	return h, closeSvc, nil
}

// ExportCmd writes hands as PHH.
type ExportCmd struct {
	File   string `arg:"" optional:"" help:"Export hands parsed from this file instead of the library"`
	Out    string `short:"o" help:"Output file (default stdout)" type:"path"`
	Player string `help:"Only hands this player was dealt into"`
	Table  string `help:"Only hands from this table"`
	Limit  int    `help:"Maximum number of hands (0 = all)"`
}

func (cmd *ExportCmd) Run(g *Globals) error {
	var hands []*parser.Hand
	if cmd.File != "" {
		parsed, err := readHands(cmd.File)
		if err != nil {
			return err
		}
		hands = parsed
		if cmd.Limit > 0 && cmd.Limit < len(hands) {
			hands = hands[:cmd.Limit]
		}
	} else {
		svc, closeSvc, err := g.openService()
		if err != nil {
			return err
		}
		defer closeSvc()
		hands, err = svc.Hands(context.Background(), persistence.HandFilter{
			Player: cmd.Player,
			Table:  cmd.Table,
			Limit:  cmd.Limit,
		})
		if err != nil {
			return err
		}
	}
	if len(hands) == 0 {
		return fmt.Errorf("no hands to export")
	}

	var w io.Writer = os.Stdout
	if cmd.Out != "" {
		f, err := os.Create(cmd.Out)
		if err != nil {
			return fmt.Errorf("create %s: %w", cmd.Out, err)
		}
		defer f.Close()
		w = f
	}
	if err := phh.EncodeHands(w, hands); err != nil {
		return err
	}
	slog.Info("exported hands", "count", len(hands), "out", cmd.Out)
	return nil
}

// RangeCmd resolves a range chart for a hand.
type RangeCmd struct {
	UID  string `arg:"" optional:"" help:"Hand UID (defaults to the newest hand)"`
	At   string `help:"Cursor as street:index (e.g. preflop:3) to use the next player to act instead of the opener"`
	Base string `help:"Chart base path or URL (defaults to config)"`
}

func (cmd *RangeCmd) Run(g *Globals) error {
	svc, closeSvc, err := g.openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	ctx := context.Background()
	h, err := loadHand(ctx, svc, cmd.UID)
	if err != nil {
		return err
	}

	var rc ranges.Context
	if cmd.At != "" {
		c, err := parseCursor(cmd.At)
		if err != nil {
			return err
		}
		rc, err = ranges.FromNextToAct(h, c)
		if err != nil {
			return err
		}
	} else if rc, err = ranges.FromOpenRaise(h); err != nil {
		return err
	}

	base := cmd.Base
	if base == "" {
		base = g.cfg.RangesBase
	}
	resolver := ranges.NewResolver(base, g.cfg.RangeProber())
	fmt.Printf("%s %s %dBB (effective %dBB): %s\n",
		rc.Player, rc.Position, rc.Depth(), rc.EffectiveBB, resolver.Resolve(ctx, rc))
	return nil
}

// StatsCmd aggregates player statistics over the library.
type StatsCmd struct {
	Player string `arg:"" optional:"" help:"Player name (defaults to the hero of each hand)"`
	Table  string `help:"Only hands from this table"`
}

func (cmd *StatsCmd) Run(g *Globals) error {
	svc, closeSvc, err := g.openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	f := persistence.HandFilter{Player: cmd.Player, Table: cmd.Table, HeroOnly: cmd.Player == ""}
	hands, err := svc.Hands(context.Background(), f)
	if err != nil {
		return err
	}
	if len(hands) == 0 {
		return application.ErrNoHands
	}
	return report.PlayerStats(os.Stdout, stats.Calculate(hands, cmd.Player))
}

// RunsCmd lists import runs.
type RunsCmd struct {
	Limit int `default:"10" help:"Number of runs to show"`
}

func (cmd *RunsCmd) Run(g *Globals) error {
	svc, closeSvc, err := g.openService()
	if err != nil {
		return err
	}
	defer closeSvc()

	runs, err := svc.ImportRuns(context.Background(), cmd.Limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "ok"
		if r.Err != "" {
			status = "error: " + r.Err
		}
		fmt.Printf("%s  %s  %s  +%d ~%d =%d  %s\n",
			r.StartedAt.Local().Format(time.DateTime), r.ID[:min(8, len(r.ID))], r.SourcePath,
			r.Result.Inserted, r.Result.Updated, r.Result.Skipped, status)
	}
	return nil
}

func readText(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func readHands(path string) ([]*parser.Hand, error) {
	if path == "-" {
		return parser.ParseReader(os.Stdin)
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	hands, err := parser.ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return hands, nil
}

func loadHand(ctx context.Context, svc *application.Service, uid string) (*parser.Hand, error) {
	if uid == "" {
		return svc.LatestHand(ctx)
	}
	return svc.GetHand(ctx, uid)
}

func parseCursor(s string) (replay.Cursor, error) {
	name, idx, ok := strings.Cut(s, ":")
	st, known := parser.ParseStreet(name)
	if !known {
		return replay.Cursor{}, fmt.Errorf("unknown street in cursor %q", s)
	}
	if !ok {
		return replay.Neutral(st), nil
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return replay.Cursor{}, fmt.Errorf("bad index in cursor %q: %w", s, err)
	}
	return replay.Cursor{Street: st, Index: i}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
