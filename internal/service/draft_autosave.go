package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
)

// DefaultAutosaveWindow is the minimum spacing between persisted saves per
// draft.
const DefaultAutosaveWindow = 5 * time.Second

// SaveFunc persists one draft snapshot.
type SaveFunc func(ctx context.Context, snapshot model.DraftData)

// DraftAutosaver coalesces rapid draft edits into at most one save per
// window. The first edit after a quiet period saves immediately (leading
// edge); edits inside the window are folded into a single trailing save
// carrying the latest snapshot, so the final keystroke is never dropped.
//
// Saves are skipped while the draft is read-only or the snapshot has no
// meaningful content.
type DraftAutosaver struct {
	save   SaveFunc
	window time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	lastSave time.Time
	pending  *model.DraftData
	timer    *time.Timer
	readOnly bool
	closed   bool
}

// NewDraftAutosaver creates an autosaver. A non-positive window falls back
// to DefaultAutosaveWindow.
func NewDraftAutosaver(save SaveFunc, window time.Duration, logger *zap.Logger) *DraftAutosaver {
	if window <= 0 {
		window = DefaultAutosaveWindow
	}
	return &DraftAutosaver{save: save, window: window, logger: logger}
}

// SetReadOnly toggles view mode. While read-only, Touch is a no-op and any
// pending trailing save is dropped.
func (a *DraftAutosaver) SetReadOnly(readOnly bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readOnly = readOnly
	if readOnly {
		a.cancelPendingLocked()
	}
}

// Touch records an edit. Outside the window the snapshot saves immediately;
// inside it, the snapshot replaces any pending one and flushes on the
// trailing edge.
//
// The trailing flush can fire after the caller has returned, so the context
// is detached from cancellation; otherwise a request-scoped context would be
// dead by the time the timer runs and the last snapshot would never persist.
func (a *DraftAutosaver) Touch(ctx context.Context, snapshot model.DraftData) {
	ctx = context.WithoutCancel(ctx)

	a.mu.Lock()
	if a.closed || a.readOnly || !hasMeaningfulContent(&snapshot) {
		a.mu.Unlock()
		return
	}

	now := time.Now()
	elapsed := now.Sub(a.lastSave)
	if a.pending == nil && elapsed >= a.window {
		a.lastSave = now
		a.mu.Unlock()
		a.save(ctx, snapshot)
		return
	}

	// Coalesce: keep only the latest snapshot, arm the trailing timer once.
	snap := snapshot
	a.pending = &snap
	if a.timer == nil {
		delay := a.window - elapsed
		if delay < 0 {
			delay = 0
		}
		a.timer = time.AfterFunc(delay, func() { a.flush(ctx) })
	}
	a.mu.Unlock()
}

// Flush persists any pending snapshot immediately. Callers use it on
// navigation away from the wizard.
func (a *DraftAutosaver) Flush(ctx context.Context) {
	a.flush(ctx)
}

// Close drops any pending save and stops the timer.
func (a *DraftAutosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.cancelPendingLocked()
}

func (a *DraftAutosaver) flush(ctx context.Context) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	snap := a.pending
	a.pending = nil
	if snap == nil || a.closed || a.readOnly {
		a.mu.Unlock()
		return
	}
	a.lastSave = time.Now()
	a.mu.Unlock()

	a.save(ctx, *snap)
	if a.logger != nil {
		a.logger.Debug("autosave trailing flush")
	}
}

func (a *DraftAutosaver) cancelPendingLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}

// hasMeaningfulContent reports whether a snapshot is worth saving: at least
// one core field set or one time block present.
func hasMeaningfulContent(data *model.DraftData) bool {
	if len(data.TimeBlocks) > 0 {
		return true
	}
	for _, field := range []string{data.Name, data.DoorcardName, data.OfficeNumber, data.Term, data.Year, data.College} {
		if strings.TrimSpace(field) != "" {
			return true
		}
	}
	return false
}
