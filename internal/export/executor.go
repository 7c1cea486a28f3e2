package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"reelforge/internal/config"
	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/plan"
	"reelforge/internal/resources"
	"reelforge/internal/services"
	"reelforge/internal/sessions"
	"reelforge/internal/textutil"
	"reelforge/internal/timeline"
)

// Event is one progress report surfaced to the caller during an export.
type Event struct {
	Phase   sessions.Phase
	Percent float64
	Message string
}

// Result summarizes a finished export.
type Result struct {
	SessionID  string
	Strategy   plan.Strategy
	OutputPath string
}

// Executor drives a full export run. One run executes at a time: a mutex
// rejects concurrent calls in-process and a lock file rejects them across
// processes.
type Executor struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *sessions.Store
	preparer *Preparer

	mu      sync.Mutex
	running bool
}

// NewExecutor constructs an Executor. store may be nil when history
// persistence is not wanted.
func NewExecutor(cfg *config.Config, logger *slog.Logger, store *sessions.Store, manager *resources.Manager) *Executor {
	return &Executor{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "export"),
		store:    store,
		preparer: NewPreparer(manager, logger),
	}
}

// Export runs the whole pipeline for one timeline document. onEvent, when
// non-nil, receives phase transitions and encode progress.
func (e *Executor) Export(ctx context.Context, timelinePath string, onEvent func(Event)) (*Result, error) {
	if !e.tryStart() {
		return nil, services.Wrap(services.ErrExportBusy, "export", "start",
			"another export is already running in this process", nil)
	}
	defer e.finish()

	if err := e.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "start", "check configured directories", err)
	}

	fileLock := flock.New(e.cfg.LockFilePath())
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrExportBusy, "export", "lock", "check the lock file", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrExportBusy, "export", "lock",
			"another export holds "+e.cfg.LockFilePath(), nil)
	}
	defer func() { _ = fileLock.Unlock() }()

	tl, err := timeline.LoadFile(timelinePath)
	if err != nil {
		return nil, err
	}

	session, err := e.startSession(ctx, timelinePath)
	if err != nil {
		return nil, err
	}

	result, err := e.run(ctx, session, tl, timelinePath, onEvent)
	if err != nil {
		e.failSession(session, err)
		e.emit(onEvent, Event{Phase: sessions.PhaseFailed, Message: err.Error()})
		return nil, err
	}
	e.emit(onEvent, Event{Phase: sessions.PhaseCompleted, Percent: 100, Message: result.OutputPath})
	return result, nil
}

func (e *Executor) run(ctx context.Context, session *sessions.Session, tl *timeline.Timeline, timelinePath string, onEvent func(Event)) (*Result, error) {
	e.emit(onEvent, Event{Phase: sessions.PhasePreparing})

	probes, err := plan.ProbeCatalog(ctx, e.cfg.FFprobeBinary(), tl.Catalog)
	if err != nil {
		return nil, err
	}

	fallback := timeline.Target{
		Width:  e.cfg.Export.Width,
		Height: e.cfg.Export.Height,
		FPS:    e.cfg.Export.FPS,
	}
	exportPlan, err := plan.Analyze(tl, probes, fallback)
	if err != nil {
		return nil, err
	}
	e.logger.Info("strategy selected",
		logging.String(logging.FieldSessionID, session.ID),
		logging.String(logging.FieldStrategy, string(exportPlan.Strategy)),
		logging.String("reason", exportPlan.Reason),
	)
	e.recordStrategy(session, exportPlan.Strategy)

	scratchDir := filepath.Join(e.cfg.Paths.TempDir, "session-"+session.ID)
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "create scratch dir",
			"check temp directory permissions", err)
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			e.logger.Warn("scratch dir cleanup failed",
				logging.String(logging.FieldSessionID, session.ID),
				logging.Error(err),
			)
		}
	}()

	prepared, err := e.preparer.Prepare(tl, scratchDir)
	if err != nil {
		return nil, err
	}
	defer prepared.Release()

	e.setPhase(session, sessions.PhaseEncoding)
	e.emit(onEvent, Event{Phase: sessions.PhaseEncoding})

	progress := e.progressSink(session, onEvent)
	target := encoderTarget(exportPlan, e.cfg)
	videoOut := filepath.Join(scratchDir, "video.mp4")

	switch exportPlan.Strategy {
	case plan.StrategyDirectCopy:
		err = e.runDirectCopy(ctx, prepared.Videos(), scratchDir, videoOut)
	case plan.StrategyNormalize:
		err = e.runNormalize(ctx, prepared.Videos(), target, scratchDir, videoOut, progress)
	case plan.StrategyFullReencode:
		err = e.runFullReencode(ctx, tl, prepared, target, videoOut, progress)
	default:
		err = services.Wrap(services.ErrInvalidExportConfiguration, "export", "dispatch",
			fmt.Sprintf("no executor for strategy %q", exportPlan.Strategy), nil)
	}
	if err != nil {
		return nil, err
	}

	finalFile, err := e.applyAudio(ctx, prepared.Audio(), videoOut, scratchDir)
	if err != nil {
		return nil, err
	}

	e.setPhase(session, sessions.PhaseFinalizing)
	e.emit(onEvent, Event{Phase: sessions.PhaseFinalizing, Percent: 100})

	outputPath := e.resolveOutputPath(tl, timelinePath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "create output dir",
			"check configured output directory", err)
	}
	if err := fileutil.MoveFile(finalFile, outputPath); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "finalize output",
			"check output directory permissions and free space", err)
	}

	e.completeSession(session, outputPath)
	e.logger.Info("export completed",
		logging.String(logging.FieldSessionID, session.ID),
		logging.String(logging.FieldStrategy, string(exportPlan.Strategy)),
		logging.String("output", outputPath),
	)
	return &Result{SessionID: session.ID, Strategy: exportPlan.Strategy, OutputPath: outputPath}, nil
}

func (e *Executor) tryStart() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	return true
}

func (e *Executor) finish() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

func (e *Executor) emit(onEvent func(Event), event Event) {
	if onEvent != nil {
		onEvent(event)
	}
}

// progressSink converts encoder progress into session updates and caller
// events, throttling database writes to the configured interval.
func (e *Executor) progressSink(session *sessions.Session, onEvent func(Event)) func(percent float64, message string) {
	interval := time.Duration(e.cfg.Export.ProgressIntervalSeconds) * time.Second
	var lastPersist time.Time
	return func(percent float64, message string) {
		e.emit(onEvent, Event{Phase: sessions.PhaseEncoding, Percent: percent, Message: message})
		if e.store == nil || session == nil {
			return
		}
		now := time.Now()
		if now.Sub(lastPersist) < interval {
			return
		}
		lastPersist = now
		if err := e.store.UpdateProgress(context.Background(), session.ID, percent, message); err != nil {
			e.logger.Warn("progress persistence failed", logging.Error(err))
		}
	}
}

func (e *Executor) resolveOutputPath(tl *timeline.Timeline, timelinePath string) string {
	if strings.TrimSpace(tl.Target.OutputPath) != "" {
		return tl.Target.OutputPath
	}
	base := textutil.SanitizeFileName(strings.TrimSuffix(filepath.Base(timelinePath), filepath.Ext(timelinePath)))
	if base == "" {
		base = "export"
	}
	return filepath.Join(e.cfg.Paths.OutputDir, base+".mp4")
}

// Session bookkeeping failures are logged, never fatal: history is a
// convenience, the export artifact is the contract.

func (e *Executor) startSession(ctx context.Context, timelinePath string) (*sessions.Session, error) {
	if e.store == nil {
		return &sessions.Session{ID: "local-" + filepath.Base(timelinePath)}, nil
	}
	return e.store.Start(ctx, timelinePath)
}

func (e *Executor) recordStrategy(session *sessions.Session, strategy plan.Strategy) {
	if e.store == nil {
		return
	}
	if err := e.store.SetStrategy(context.Background(), session.ID, string(strategy)); err != nil {
		e.logger.Warn("strategy persistence failed", logging.Error(err))
	}
}

func (e *Executor) setPhase(session *sessions.Session, phase sessions.Phase) {
	if e.store == nil {
		return
	}
	if err := e.store.SetPhase(context.Background(), session.ID, phase); err != nil {
		e.logger.Warn("phase persistence failed", logging.Error(err))
	}
}

func (e *Executor) completeSession(session *sessions.Session, outputPath string) {
	if e.store == nil {
		return
	}
	if err := e.store.Complete(context.Background(), session.ID, outputPath); err != nil {
		e.logger.Warn("completion persistence failed", logging.Error(err))
	}
}

func (e *Executor) failSession(session *sessions.Session, cause error) {
	if e.store == nil || session == nil {
		return
	}
	if err := e.store.Fail(context.Background(), session.ID, cause.Error()); err != nil {
		e.logger.Warn("failure persistence failed", logging.Error(err))
	}
}
