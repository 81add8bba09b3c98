package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
	"github.com/custodia-labs/casesync/internal/logger"
)

// Verify interface compliance.
var _ driving.Reconciler = (*Reconciler)(nil)

// Reconciler mirrors linked directories into document records and keeps the
// index in step with them.
//
// Ticks are serialised: ReconcileAll and ReconcileSource never run at the
// same time. Failures on a single file or directory are counted in the
// returned stats and never abort the tick.
type Reconciler struct {
	docs      driven.DocumentStore
	sources   driven.LinkedSourceStore
	extractor driven.ContentExtractor
	indexer   driving.Indexer
	now       func() time.Time

	tickMu sync.Mutex

	statusMu sync.RWMutex
	status   driving.ReconcileStatus
}

// NewReconciler creates a reconciler. sources may be nil, in which case only
// directories that already have documents are scanned.
func NewReconciler(
	docs driven.DocumentStore,
	sources driven.LinkedSourceStore,
	extractor driven.ContentExtractor,
	indexer driving.Indexer,
) *Reconciler {
	return &Reconciler{
		docs:      docs,
		sources:   sources,
		extractor: extractor,
		indexer:   indexer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// linkGroup is the unit of reconciliation: one linked directory of one case.
type linkGroup struct {
	caseID  domain.CaseID
	linkID  domain.LinkID
	source  *domain.LinkedSource
	members []domain.Document
}

type groupKey struct {
	caseID domain.CaseID
	linkID domain.LinkID
}

// scannedFile is a file observed on disk during a scan.
type scannedFile struct {
	path    string
	rel     string
	modTime time.Time
}

// Status returns the outcome of the most recent tick.
func (r *Reconciler) Status() driving.ReconcileStatus {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

func (r *Reconciler) setRunning() {
	r.statusMu.Lock()
	r.status.Running = true
	r.statusMu.Unlock()
}

func (r *Reconciler) finish(stats domain.ReconcileStats, err error) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.Running = false
	r.status.LastRun = r.now()
	r.status.LastStats = stats
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
}

// ReconcileAll runs one tick over every linked directory.
//
// The returned error is set only when the tick could not run at all, for
// example when the document store is unreachable.
func (r *Reconciler) ReconcileAll(ctx context.Context) (domain.ReconcileStats, error) {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()
	r.setRunning()

	var total domain.ReconcileStats

	linked, err := r.docs.ListLinked(ctx)
	if err != nil {
		err = &domain.StoreError{Op: "list linked documents", Cause: err}
		r.finish(total, err)
		return total, err
	}

	var sources []domain.LinkedSource
	if r.sources != nil {
		sources, err = r.sources.List(ctx)
		if err != nil {
			err = &domain.StoreError{Op: "list linked sources", Cause: err}
			r.finish(total, err)
			return total, err
		}
	}

	total, err = r.runGroups(ctx, buildGroups(linked, sources))
	if total.Changed() {
		logger.Slog().Info("reconcile tick",
			"added", total.Added,
			"updated", total.Updated,
			"removed", total.Removed,
			"unchanged", total.Unchanged,
			"errors", total.Errors,
		)
	}
	r.finish(total, err)
	return total, err
}

// ReconcileSource runs one tick over a single linked directory.
func (r *Reconciler) ReconcileSource(ctx context.Context, linkID domain.LinkID) (domain.ReconcileStats, error) {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()
	r.setRunning()

	var total domain.ReconcileStats

	var sources []domain.LinkedSource
	if r.sources != nil {
		src, err := r.sources.Get(ctx, linkID)
		switch {
		case err == nil:
			sources = append(sources, *src)
		case !errors.Is(err, domain.ErrNotFound):
			err = &domain.StoreError{Op: "get linked source", Cause: err}
			r.finish(total, err)
			return total, err
		}
	}

	members, err := r.docs.ListByLink(ctx, linkID)
	if err != nil {
		err = &domain.StoreError{Op: "list linked documents", Cause: err}
		r.finish(total, err)
		return total, err
	}

	if len(sources) == 0 && len(members) == 0 {
		err = fmt.Errorf("link %s: %w", linkID, domain.ErrNotFound)
		r.finish(total, err)
		return total, err
	}

	total, err = r.runGroups(ctx, buildGroups(members, sources))
	r.finish(total, err)
	return total, err
}

func (r *Reconciler) runGroups(ctx context.Context, groups []*linkGroup) (domain.ReconcileStats, error) {
	var total domain.ReconcileStats

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		stats, err := r.reconcileGroup(ctx, g)
		total.Add(stats)
		if err != nil {
			total.Errors++
			logger.Warn("reconcile case %s link %s: %v", g.caseID, g.linkID, err)
			continue
		}

		if stats.Changed() {
			logger.Slog().Info("reconciled linked directory",
				"case", g.caseID,
				"link", g.linkID,
				"added", stats.Added,
				"updated", stats.Updated,
				"removed", stats.Removed,
				"unchanged", stats.Unchanged,
				"errors", stats.Errors,
			)
		}

		if g.source != nil && r.sources != nil {
			if err := r.sources.TouchSync(ctx, g.linkID, r.now()); err != nil {
				logger.Warn("link %s: failed to record sync time: %v", g.linkID, err)
			}
		}
	}

	return total, nil
}

// buildGroups groups linked documents by (case, link) and adds registered
// sources so that a directory with no documents yet is still scanned.
// Groups are returned in a stable order.
func buildGroups(docs []domain.Document, sources []domain.LinkedSource) []*linkGroup {
	groups := make(map[groupKey]*linkGroup)

	get := func(k groupKey) *linkGroup {
		g, ok := groups[k]
		if !ok {
			g = &linkGroup{caseID: k.caseID, linkID: k.linkID}
			groups[k] = g
		}
		return g
	}

	for i := range sources {
		src := sources[i]
		get(groupKey{src.CaseID, src.LinkID}).source = &src
	}

	for _, doc := range docs {
		if !doc.IsLinked() {
			continue
		}
		g := get(groupKey{doc.CaseID, doc.Linked.LinkID})
		g.members = append(g.members, doc)
	}

	out := make([]*linkGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].caseID != out[j].caseID {
			return out[i].caseID < out[j].caseID
		}
		return out[i].linkID < out[j].linkID
	})
	return out
}

// basePath resolves the directory to scan: the registered source first, then
// the stored base path of any member, then the parent of a member's path.
func (g *linkGroup) basePath() string {
	if g.source != nil && g.source.BasePath != "" {
		return g.source.BasePath
	}
	for _, m := range g.members {
		if m.Linked.BasePath != "" {
			return m.Linked.BasePath
		}
	}
	for _, m := range g.members {
		if p := memberPath(m); p != "" {
			return filepath.Dir(p)
		}
	}
	return ""
}

func memberPath(doc domain.Document) string {
	if doc.FilePath != "" {
		return doc.FilePath
	}
	if doc.Linked != nil {
		return doc.Linked.AbsolutePath
	}
	return ""
}

func (r *Reconciler) reconcileGroup(ctx context.Context, g *linkGroup) (domain.ReconcileStats, error) {
	var stats domain.ReconcileStats

	base := g.basePath()
	if base == "" {
		return stats, &domain.ScanError{Path: "", Cause: errors.New("no base path")}
	}

	info, err := os.Stat(base)
	if err != nil {
		return stats, &domain.ScanError{Path: base, Cause: err}
	}
	if !info.IsDir() {
		return stats, &domain.ScanError{Path: base, Cause: errors.New("not a directory")}
	}

	scanned, err := r.scan(ctx, base)
	if err != nil {
		return stats, &domain.ScanError{Path: base, Cause: err}
	}

	existing := make(map[string]domain.Document, len(g.members))
	var removed []domain.Document
	for _, doc := range g.members {
		p := memberPath(doc)
		if _, dup := existing[p]; dup {
			// A second record for the same path breaks the join key; drop it.
			removed = append(removed, doc)
			continue
		}
		existing[p] = doc
	}

	for p, doc := range existing {
		if _, ok := scanned[p]; !ok {
			removed = append(removed, doc)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return memberPath(removed[i]) < memberPath(removed[j]) })

	for _, doc := range removed {
		if err := r.removeDocument(ctx, doc); err != nil {
			stats.Errors++
			logger.Warn("remove %s: %v", memberPath(doc), err)
			continue
		}
		stats.Removed++
	}

	paths := make([]string, 0, len(scanned))
	for p := range scanned {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		file := scanned[p]
		doc, tracked := existing[p]
		if !tracked {
			created, err := r.addFile(ctx, g, base, file)
			if created {
				stats.Added++
			}
			if err != nil {
				stats.Errors++
				logger.Warn("add %s: %v", p, err)
			}
			continue
		}

		changed, err := r.refreshFile(ctx, g, base, doc, file)
		switch {
		case err != nil:
			stats.Errors++
			logger.Warn("update %s: %v", p, err)
		case changed:
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}

	return stats, nil
}

// scan walks base recursively and returns supported regular files keyed by
// absolute path under base. A symlinked base is followed; hidden entries and
// symlinks below it are skipped, as are subdirectories that cannot be read.
func (r *Reconciler) scan(ctx context.Context, base string) (map[string]scannedFile, error) {
	files := make(map[string]scannedFile)

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	// WalkDir does not descend into a symlinked root, so walk its target and
	// key results under base to keep the join key stable.
	root, err := filepath.EvalSymlinks(base)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug("scan: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if r.extractor != nil && !r.extractor.Supports(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Debug("scan: skipping %s: %v", path, err)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		abs := filepath.Join(base, rel)

		files[abs] = scannedFile{path: abs, rel: rel, modTime: info.ModTime().UTC()}
		return nil
	})

	return files, err
}

func (r *Reconciler) extract(ctx context.Context, path string) (string, error) {
	if r.extractor == nil {
		return "", &domain.ExtractionError{Path: path, Cause: errors.New("no content extractor")}
	}
	text, err := r.extractor.Extract(ctx, path)
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Cause: err}
	}
	return text, nil
}

// addFile creates a document for a newly seen file and indexes its text.
// Extraction failures leave no record behind, so the file is picked up
// again as new on the next tick. created reports whether the record exists;
// an indexing error after that still leaves it to be retried as unchanged.
func (r *Reconciler) addFile(ctx context.Context, g *linkGroup, base string, file scannedFile) (bool, error) {
	hash, err := hashFile(file.path)
	if err != nil {
		return false, err
	}

	text, err := r.extract(ctx, file.path)
	if err != nil {
		return false, err
	}

	now := r.now()
	doc := &domain.Document{
		ID:         domain.NewDocumentID(),
		CaseID:     g.caseID,
		Filename:   filepath.Base(file.path),
		FilePath:   file.path,
		SourceType: domain.SourceLinked,
		Linked: &domain.LinkedFile{
			AbsolutePath: file.path,
			RelativePath: file.rel,
			BasePath:     base,
			LinkID:       g.linkID,
			SourceHash:   hash,
			SourceMtime:  file.modTime,
			LastSync:     now,
		},
		ExtractedText: &text,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := r.docs.Create(ctx, doc); err != nil {
		return false, &domain.StoreError{Op: "create document", Cause: err}
	}

	if domain.IsPlaceholder(text) {
		logger.Debug("add %s: no usable content, not indexed", file.path)
		return true, nil
	}

	_, err = r.indexer.IndexDocument(ctx, domain.IndexRequest{
		DocumentID: doc.ID,
		CaseID:     doc.CaseID,
		Text:       text,
	})
	return true, err
}

// refreshFile compares a tracked file with its record. A hash or mtime change
// re-extracts the text and forces a reindex so the chunks follow the new
// content. It reports whether the record changed.
func (r *Reconciler) refreshFile(
	ctx context.Context,
	g *linkGroup,
	base string,
	doc domain.Document,
	file scannedFile,
) (bool, error) {
	hash, err := hashFile(file.path)
	if err != nil {
		return false, err
	}

	if doc.Linked.SourceHash == hash && doc.Linked.SourceMtime.Equal(file.modTime) {
		// Unchanged content that never made it into the index gets another
		// attempt, e.g. after the embedding provider was down.
		if !doc.Indexed && !domain.IsPlaceholder(doc.Text()) {
			if _, err := r.indexer.IndexDocument(ctx, domain.IndexRequest{
				DocumentID: doc.ID,
				CaseID:     doc.CaseID,
				Text:       doc.Text(),
			}); err != nil {
				logger.Debug("retry index %s: %v", file.path, err)
			}
		}
		return false, nil
	}

	text, err := r.extract(ctx, file.path)
	if err != nil {
		return false, err
	}

	linked := *doc.Linked
	linked.AbsolutePath = file.path
	linked.RelativePath = file.rel
	linked.BasePath = base
	linked.LinkID = g.linkID
	linked.SourceHash = hash
	linked.SourceMtime = file.modTime
	linked.LastSync = r.now()

	indexed := false
	if err := r.docs.Merge(ctx, doc.ID, domain.DocumentUpdate{
		Linked:        &linked,
		ExtractedText: &text,
		Indexed:       &indexed,
	}); err != nil {
		return false, &domain.StoreError{Op: "merge document", Cause: err}
	}

	if domain.IsPlaceholder(text) {
		// The file no longer yields text; its old chunks would be stale.
		return true, r.indexer.DeleteDocumentIndex(ctx, doc.ID)
	}

	_, err = r.indexer.IndexDocument(ctx, domain.IndexRequest{
		DocumentID:   doc.ID,
		CaseID:       doc.CaseID,
		Text:         text,
		ForceReindex: true,
	})
	return true, err
}

func (r *Reconciler) removeDocument(ctx context.Context, doc domain.Document) error {
	if err := r.indexer.DeleteDocumentIndex(ctx, doc.ID); err != nil {
		return err
	}
	if err := r.docs.Delete(ctx, doc.ID); err != nil {
		return &domain.StoreError{Op: "delete document", Cause: err}
	}
	return nil
}

// hashFile returns the hex SHA-256 of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
