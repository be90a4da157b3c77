package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/emrgen/folio/internal/asset"
	"github.com/emrgen/folio/internal/channel"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/module"
	"github.com/emrgen/folio/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrUploadsDisabled = errors.New("asset uploads are not configured")

// session is a server held editor. Every successful mutation is published to the
// session's slot key while the session lock is held, so slot writes follow edit order.
type session struct {
	id        string
	ownerID   string
	publisher *channel.Publisher

	mu         sync.Mutex
	doc        *model.PortfolioDocument
	version    int64
	syncedAt   int64 // version last written as a draft
	updatedAt  time.Time
	lastAccess time.Time
	// closed is set once the session left the session map; a holder of a stale
	// pointer must re-resolve the session instead of writing to it.
	closed bool
}

func (s *session) snapshot() *model.PortfolioDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// SessionRef describes a live session.
type SessionRef struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionInfo is returned when a session starts.
type SessionInfo struct {
	ID       string                   `json:"id"`
	Document *model.PortfolioDocument `json:"document"`
}

// StartSession opens an edit session for ownerID. With prefill the owner's latest
// published document is loaded, otherwise the session starts from defaults.
func (s *PortfolioService) StartSession(ctx context.Context, ownerID string, prefill bool) (*SessionInfo, error) {
	doc := model.NewDocument()
	if prefill {
		mine, err := s.GetMine(ctx, ownerID)
		switch {
		case err == nil:
			doc = mine
		case errors.Is(err, ErrPortfolioNotFound):
		default:
			return nil, err
		}
	}

	sess := s.newSession(uuid.New().String(), ownerID, doc, 0, -1)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	logrus.Infof("started session %s for owner %s", sess.id, ownerID)

	// seed the slot so preview contexts leave the empty state
	_ = sess.publisher.Publish(ctx, doc)

	return &SessionInfo{ID: sess.id, Document: doc.Clone()}, nil
}

func (s *PortfolioService) newSession(id, ownerID string, doc *model.PortfolioDocument, version, synced int64) *session {
	now := time.Now()
	return &session{
		id:         id,
		ownerID:    ownerID,
		publisher:  channel.NewPublisher(s.slot, channel.PreviewKey(id), s.codec),
		doc:        doc,
		version:    version,
		syncedAt:   synced,
		updatedAt:  now,
		lastAccess: now,
	}
}

// session returns a live session, restoring it from its draft after a restart.
func (s *PortfolioService) session(ctx context.Context, id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		restored, err := s.restore(ctx, id)
		if err != nil {
			return nil, err
		}
		sess = restored
	}

	if owner, ok := module.OwnerFromContext(ctx); ok && owner != sess.ownerID {
		return nil, ErrSessionForbidden
	}

	return sess, nil
}

func (s *PortfolioService) restore(ctx context.Context, id string) (*session, error) {
	draft, err := s.store.GetDraft(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	doc, err := decodeContent(draft.Content, draft.Compression)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another request may have restored it first
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	sess := s.newSession(id, draft.OwnerID, doc, draft.Version, draft.Version)
	s.sessions[id] = sess
	logrus.Infof("restored session %s from draft version %d", id, draft.Version)

	return sess, nil
}

// Document returns a copy of the session's current document.
func (s *PortfolioService) Document(ctx context.Context, sessionID string) (*model.PortfolioDocument, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.snapshot(), nil
}

// maxResolve bounds how often an edit follows a session that was evicted and
// restored underneath it.
const maxResolve = 3

func (s *PortfolioService) mutate(ctx context.Context, sessionID string, fn func(doc *model.PortfolioDocument) error) (*model.PortfolioDocument, error) {
	for range maxResolve {
		sess, err := s.session(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		doc, applied, err := s.apply(ctx, sess, fn)
		if applied || err != nil {
			return doc, err
		}
	}

	return nil, ErrSessionNotFound
}

// apply runs fn on a live session. It reports false without touching the session
// when the session was closed after it was resolved.
func (s *PortfolioService) apply(ctx context.Context, sess *session, fn func(doc *model.PortfolioDocument) error) (*model.PortfolioDocument, bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, false, nil
	}

	if err := fn(sess.doc); err != nil {
		return nil, true, err
	}

	sess.version++
	sess.updatedAt = time.Now()
	sess.lastAccess = sess.updatedAt

	// a failed slot write leaves the preview stale but never fails the edit; the
	// next draft sync republishes
	if err := sess.publisher.Publish(ctx, sess.doc); err != nil {
		logrus.Warnf("session %s: preview not updated: %v", sess.id, err)
	}

	return sess.doc.Clone(), true, nil
}

func (s *PortfolioService) UpdateField(ctx context.Context, sessionID, path, value string) (*model.PortfolioDocument, error) {
	return s.mutate(ctx, sessionID, func(doc *model.PortfolioDocument) error {
		return doc.UpdateField(path, value)
	})
}

func (s *PortfolioService) UpdateArrayElement(ctx context.Context, sessionID, array string, index int, field, value string) (*model.PortfolioDocument, error) {
	return s.mutate(ctx, sessionID, func(doc *model.PortfolioDocument) error {
		return doc.UpdateArrayElement(array, index, field, value)
	})
}

func (s *PortfolioService) AppendArrayElement(ctx context.Context, sessionID, array string, template any) (*model.PortfolioDocument, error) {
	return s.mutate(ctx, sessionID, func(doc *model.PortfolioDocument) error {
		return doc.AppendArrayElement(array, template)
	})
}

func (s *PortfolioService) RemoveArrayElement(ctx context.Context, sessionID, array string, index int) (*model.PortfolioDocument, error) {
	return s.mutate(ctx, sessionID, func(doc *model.PortfolioDocument) error {
		return doc.RemoveArrayElement(array, index)
	})
}

// SetAchievementTitle sets an achievement title, storing it in object shape.
func (s *PortfolioService) SetAchievementTitle(ctx context.Context, sessionID string, index int, title string) (*model.PortfolioDocument, error) {
	return s.mutate(ctx, sessionID, func(doc *model.PortfolioDocument) error {
		_, err := doc.NormalizeAchievement(index, title)
		return err
	})
}

func (s *PortfolioService) ToggleSkill(ctx context.Context, sessionID, skill string) (*model.PortfolioDocument, error) {
	return s.mutate(ctx, sessionID, func(doc *model.PortfolioDocument) error {
		return doc.ToggleSetMember(model.SetSkills, skill)
	})
}

// AttachAsset uploads a file and stores its reference in the document. index picks
// the project or achievement row and is ignored for profile and resume assets.
func (s *PortfolioService) AttachAsset(ctx context.Context, sessionID, kind string, index int, filename string, r io.Reader, size int64, contentType string) (*model.PortfolioDocument, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	if !asset.ValidKind(kind) {
		return nil, fmt.Errorf("%w: %s", asset.ErrUnknownKind, kind)
	}

	set := func(doc *model.PortfolioDocument, ref string) error {
		switch kind {
		case asset.KindProfile:
			return doc.UpdateField("profileImage", ref)
		case asset.KindResume:
			return doc.UpdateField("resume", ref)
		case asset.KindProject:
			return doc.UpdateArrayElement(model.ArrayProjects, index, "image", ref)
		default:
			return doc.UpdateArrayElement(model.ArrayAchievements, index, "image", ref)
		}
	}

	// reject a bad row before storing the file
	current, err := s.Document(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := set(current, ""); err != nil {
		return nil, err
	}

	ref, err := s.uploader.Upload(ctx, kind, filename, r, size, contentType)
	if err != nil {
		return nil, err
	}

	doc, err := s.mutate(ctx, sessionID, func(doc *model.PortfolioDocument) error {
		return set(doc, ref)
	})
	if err != nil {
		// the row went away while uploading
		if derr := s.uploader.Delete(context.WithoutCancel(ctx), ref); derr != nil {
			logrus.Warnf("session %s: orphaned asset %s: %v", sessionID, ref, derr)
		}
		return nil, err
	}

	return doc, nil
}

// EndSession drops the session, its slot value and its draft.
func (s *PortfolioService) EndSession(ctx context.Context, sessionID string) error {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if cur, ok := s.sessions[sessionID]; ok && cur == sess {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	// waits for a draft sync in flight, which then cannot write after DeleteDraft
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()

	if err := s.slot.Delete(ctx, channel.PreviewKey(sessionID)); err != nil {
		logrus.Warnf("session %s: failed to clear slot: %v", sessionID, err)
	}

	return s.store.DeleteDraft(ctx, sessionID)
}

// Sessions lists the live sessions ordered by id.
func (s *PortfolioService) Sessions() []SessionRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]SessionRef, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sess.mu.Lock()
		refs = append(refs, SessionRef{
			ID:        sess.id,
			OwnerID:   sess.ownerID,
			Version:   sess.version,
			UpdatedAt: sess.updatedAt,
		})
		sess.mu.Unlock()
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })

	return refs
}

// SyncDraft stores the session's document as a draft when the session has changed
// since the last sync. It reports whether a draft was written.
func (s *PortfolioService) SyncDraft(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, ErrSessionNotFound
	}

	return s.syncSession(ctx, sess)
}

// syncSession holds the session lock for the whole sync so the draft carries
// exactly the version it is stored under, and a closed session is never written.
func (s *PortfolioService) syncSession(ctx context.Context, sess *session) (bool, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed || sess.version == sess.syncedAt {
		return false, nil
	}

	// the editor copy is authoritative; the slot may lag after a failed write
	content, compression, err := encodeContent(s.codec, sess.doc)
	if err != nil {
		return false, err
	}

	err = s.store.SaveDraft(ctx, &model.Draft{
		SessionID:   sess.id,
		OwnerID:     sess.ownerID,
		Content:     content,
		Compression: compression,
		Version:     sess.version,
	})
	if err != nil {
		return false, err
	}
	sess.syncedAt = sess.version

	s.repairPreview(ctx, sess)

	return true, nil
}

// repairPreview republishes the editor copy when the slot does not hold it.
func (s *PortfolioService) repairPreview(ctx context.Context, sess *session) {
	current, err := channel.Read(ctx, s.slot, channel.PreviewKey(sess.id), s.codec)
	if err == nil && reflect.DeepEqual(current, sess.doc) {
		return
	}

	if err := sess.publisher.Publish(ctx, sess.doc); err != nil {
		logrus.Warnf("session %s: preview still stale: %v", sess.id, err)
	}
}

// EvictIdle drops synced sessions not edited for longer than idle. Their drafts stay in the
// store so they can be restored on the next request.
func (s *PortfolioService) EvictIdle(idle time.Duration) []string {
	cutoff := time.Now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.lastAccess.Before(cutoff) && sess.version == sess.syncedAt
		if stale {
			sess.closed = true
		}
		sess.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}

	sort.Strings(evicted)

	return evicted
}
