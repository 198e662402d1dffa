package service

import (
	"context"
	"log/slog"
	stdsync "sync"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/media/thumbs"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote"
	"github.com/lisashushakova/PresentationConfigurator/internal/render"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
	decksync "github.com/lisashushakova/PresentationConfigurator/internal/sync"
)

// Deck sync statuses published while a sync run is in flight.
const (
	StatusCreating = "creating"
	StatusUpdating = "updating"
	StatusFailed   = "failed"
)

// SyncReport summarizes one sync run.
type SyncReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

// SyncService drives the per-user sync pipeline: list marked decks,
// classify the delta, then render and persist each changed deck on a
// bounded worker pool.
type SyncService struct {
	db         *sqlite.Store
	drive      remote.Drive
	files      *FileService
	pool       *render.Pool
	classifier *decksync.Classifier
	reconciler *decksync.Reconciler
	workers    int
	maxSlides  int
	logger     *slog.Logger

	mu     stdsync.Mutex
	status map[string]map[string]string // userID -> deckID -> status
}

// NewSyncService creates a new sync service.
func NewSyncService(db *sqlite.Store, drive remote.Drive, files *FileService, pool *render.Pool, cmp *thumbs.Comparator, workers, maxSlides int, logger *slog.Logger) *SyncService {
	return &SyncService{
		db:         db,
		drive:      drive,
		files:      files,
		pool:       pool,
		classifier: decksync.NewClassifier(logger),
		reconciler: decksync.NewReconciler(cmp, logger),
		workers:    workers,
		maxSlides:  maxSlides,
		logger:     logger,
		status:     make(map[string]map[string]string),
	}
}

// Status returns a snapshot of the user's in-flight deck statuses. Empty
// between sync runs.
func (s *SyncService) Status(userID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]string, len(s.status[userID]))
	for deckID, st := range s.status[userID] {
		snapshot[deckID] = st
	}
	return snapshot
}

func (s *SyncService) setStatus(userID, deckID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status[userID] == nil {
		s.status[userID] = make(map[string]string)
	}
	s.status[userID][deckID] = status
}

func (s *SyncService) clearStatus(userID, deckID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.status[userID], deckID)
}

func (s *SyncService) clearAllStatus(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.status, userID)
}

// Sync brings the user's stored decks in line with the marked subtrees of
// their drive. Independent decks are processed in parallel; within one deck
// the steps are strictly sequential. Decks that fail are skipped — the next
// run retries them, since their stored timestamp was never advanced.
func (s *SyncService) Sync(ctx context.Context, sess *domain.Session) (*SyncReport, error) {
	defer s.clearAllStatus(sess.UserID)

	remoteDecks, err := s.files.MarkedDecks(ctx, sess)
	if err != nil {
		return nil, err
	}
	local, err := s.db.ListDecks(ctx, sess.UserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load stored decks")
	}
	localDecks := make([]domain.Deck, len(local))
	for i, d := range local {
		localDecks[i] = *d
	}

	delta := s.classifier.Classify(remoteDecks, localDecks)
	report := &SyncReport{}

	for _, d := range delta.Removed {
		if err := s.db.DeleteDeck(ctx, d.ID); err != nil {
			s.logger.Error("failed to delete removed deck", "deck_id", d.ID, "error", err)
			report.Failed++
			continue
		}
		report.Removed++
	}

	type deckJob struct {
		summary domain.DeckSummary
		created bool
	}
	jobs := make(chan deckJob)

	var (
		wg stdsync.WaitGroup
		mu stdsync.Mutex
	)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				var err error
				if job.created {
					err = s.createDeck(ctx, sess, job.summary)
				} else {
					err = s.updateDeck(ctx, sess, job.summary)
				}

				mu.Lock()
				switch {
				case err != nil:
					report.Failed++
				case job.created:
					report.Created++
				default:
					report.Updated++
				}
				mu.Unlock()
			}
		}()
	}

	for _, d := range delta.Created {
		jobs <- deckJob{summary: d, created: true}
	}
	for _, d := range delta.Updated {
		jobs <- deckJob{summary: d}
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("sync finished",
		"user_id", sess.UserID,
		"created", report.Created,
		"updated", report.Updated,
		"removed", report.Removed,
		"failed", report.Failed,
	)
	return report, nil
}

// createDeck syncs a deck seen for the first time: download, render, and
// bulk-insert its slides at indices 0..n-1.
func (s *SyncService) createDeck(ctx context.Context, sess *domain.Session, summary domain.DeckSummary) error {
	s.setStatus(sess.UserID, summary.ID, StatusCreating)

	rendered, err := s.renderRemote(ctx, sess, summary.ID)
	if err != nil {
		s.setStatus(sess.UserID, summary.ID, StatusFailed)
		s.logger.Error("failed to render new deck", "deck_id", summary.ID, "error", err)
		return err
	}

	deck := &domain.Deck{
		ID:           summary.ID,
		Name:         summary.Name,
		OwnerID:      sess.UserID,
		ModifiedTime: summary.ModifiedTime,
	}
	if err := s.db.CreateDeck(ctx, deck); err != nil {
		s.setStatus(sess.UserID, summary.ID, StatusFailed)
		return err
	}

	slides := make([]domain.Slide, len(rendered.Thumbnails))
	for i := range rendered.Thumbnails {
		slides[i] = s.newSlide(summary.ID, i, rendered)
	}
	if err := s.db.BulkInsertSlides(ctx, slides); err != nil {
		s.setStatus(sess.UserID, summary.ID, StatusFailed)
		return err
	}

	s.clearStatus(sess.UserID, summary.ID)
	return nil
}

// updateDeck re-syncs a changed deck: refresh its metadata, render the new
// version, reconcile against the stored slides, and apply the plan.
func (s *SyncService) updateDeck(ctx context.Context, sess *domain.Session, summary domain.DeckSummary) error {
	s.setStatus(sess.UserID, summary.ID, StatusUpdating)

	rendered, err := s.renderRemote(ctx, sess, summary.ID)
	if err != nil {
		s.setStatus(sess.UserID, summary.ID, StatusFailed)
		s.logger.Error("failed to render updated deck", "deck_id", summary.ID, "error", err)
		return err
	}

	stored, err := s.db.SlidesByDeck(ctx, summary.ID)
	if err != nil {
		s.setStatus(sess.UserID, summary.ID, StatusFailed)
		return err
	}
	storedSlides := make([]domain.Slide, len(stored))
	for i, sl := range stored {
		storedSlides[i] = *sl
	}

	plan, err := s.reconciler.Reconcile(storedSlides, rendered.Thumbnails)
	if err != nil {
		s.setStatus(sess.UserID, summary.ID, StatusFailed)
		return err
	}

	if err := s.applyPlan(ctx, summary.ID, plan, rendered); err != nil {
		s.setStatus(sess.UserID, summary.ID, StatusFailed)
		return err
	}

	// The timestamp advances only after the slides are in place, so a
	// failed run is retried instead of classified as unchanged.
	if err := s.db.UpdateDeckMeta(ctx, summary.ID, summary.Name, summary.ModifiedTime); err != nil {
		s.setStatus(sess.UserID, summary.ID, StatusFailed)
		return err
	}

	s.clearStatus(sess.UserID, summary.ID)
	return nil
}

func (s *SyncService) applyPlan(ctx context.Context, deckID string, plan *decksync.Plan, rendered *render.Rendered) error {
	if err := s.db.DeleteSlides(ctx, plan.Deletes); err != nil {
		return err
	}
	for _, r := range plan.Reindexes {
		if err := s.db.ReindexSlide(ctx, r.SlideID, r.NewIndex); err != nil {
			return err
		}
	}
	for _, j := range plan.Creates {
		slide := s.newSlide(deckID, j, rendered)
		if _, err := s.db.InsertSlide(ctx, &slide); err != nil {
			return err
		}
	}
	return nil
}

// renderRemote downloads and renders one deck using a pooled renderer
// session. The session is held only for the render itself, never across
// the storage writes.
func (s *SyncService) renderRemote(ctx context.Context, sess *domain.Session, deckID string) (*render.Rendered, error) {
	data, err := s.drive.Download(ctx, sess.Credentials, deckID)
	if err != nil {
		return nil, err
	}

	renderer, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	rendered, err := renderer.Render(ctx, data, s.maxSlides)
	if err != nil {
		s.pool.Discard(renderer)
		return nil, err
	}
	s.pool.Release(renderer)
	return rendered, nil
}

func (s *SyncService) newSlide(deckID string, index int, rendered *render.Rendered) domain.Slide {
	ratio := rendered.Ratio
	slide := domain.Slide{
		DeckID:    deckID,
		Index:     index,
		Thumbnail: rendered.Thumbnails[index],
		Text:      rendered.Texts[index],
		Ratio:     &ratio,
	}
	if hash, err := thumbs.BlurHash(slide.Thumbnail); err == nil {
		slide.BlurHash = hash
	}
	return slide
}

// SyncUploaded registers a deck this server just uploaded, without a
// render round-trip: the build already has the thumbnails and text. Tags of
// the originating slides are copied onto their new counterparts.
func (s *SyncService) SyncUploaded(ctx context.Context, sess *domain.Session, summary *domain.DeckSummary, ratio domain.Ratio, built []render.BuildSlide) error {
	deck := &domain.Deck{
		ID:           summary.ID,
		Name:         summary.Name,
		OwnerID:      sess.UserID,
		ModifiedTime: summary.ModifiedTime,
	}
	if err := s.db.CreateDeck(ctx, deck); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to store uploaded deck")
	}

	for i, bs := range built {
		slide := domain.Slide{
			DeckID:    summary.ID,
			Index:     i,
			Thumbnail: bs.Thumbnail,
			Text:      bs.Text,
			Ratio:     &ratio,
		}
		if hash, err := thumbs.BlurHash(bs.Thumbnail); err == nil {
			slide.BlurHash = hash
		}

		newID, err := s.db.InsertSlide(ctx, &slide)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to store uploaded slide")
		}
		if bs.SourceID != 0 {
			if err := s.db.MigrateSlideLinks(ctx, bs.SourceID, newID); err != nil {
				return errors.Wrap(err, errors.CodeInternal, "failed to migrate slide tags")
			}
		}
	}
	return nil
}
