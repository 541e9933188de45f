package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
	pkgerrors "github.com/bryan-besnyi/next-doorcard-sub000/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username != nil && *u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock TermRepository ──

type mockTermRepo struct {
	terms   map[string]*model.Term
	nextID  int
	failUpd bool // force Update failures for cascade tests
}

func newMockTermRepo() *mockTermRepo {
	return &mockTermRepo{terms: make(map[string]*model.Term)}
}

func (m *mockTermRepo) Create(_ context.Context, term *model.Term) error {
	if term.TermID == "" {
		m.nextID++
		term.TermID = fmt.Sprintf("term-%03d", m.nextID)
	}
	if term.Version == 0 {
		term.Version = 1
	}
	m.terms[term.TermID] = term
	return nil
}

func (m *mockTermRepo) GetByID(_ context.Context, id string) (*model.Term, error) {
	if t, ok := m.terms[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) GetActive(_ context.Context) (*model.Term, error) {
	for _, t := range m.terms {
		if t.IsActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) GetBySeasonYear(_ context.Context, season string, year int) (*model.Term, error) {
	for _, t := range m.terms {
		if t.Season == season && t.Year == year {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) List(_ context.Context) ([]model.Term, error) {
	var result []model.Term
	for _, t := range m.terms {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTermRepo) ListExpiredUnarchived(_ context.Context, now time.Time) ([]model.Term, error) {
	var result []model.Term
	for _, t := range m.terms {
		if t.EndDate.Before(now) && !t.IsArchived {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTermRepo) Update(_ context.Context, term *model.Term) error {
	if m.failUpd {
		return fmt.Errorf("simulated update failure")
	}
	stored, ok := m.terms[term.TermID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != term.Version {
		return pkgerrors.ErrOptimisticLock
	}
	term.Version++
	cp := *term
	m.terms[term.TermID] = &cp
	return nil
}

func (m *mockTermRepo) ClearActive(_ context.Context) error {
	for _, t := range m.terms {
		t.IsActive = false
	}
	return nil
}

// ── Mock DoorcardRepository ──

type mockDoorcardRepo struct {
	doorcards map[string]*model.Doorcard
	nextID    int
}

func newMockDoorcardRepo() *mockDoorcardRepo {
	return &mockDoorcardRepo{doorcards: make(map[string]*model.Doorcard)}
}

func (m *mockDoorcardRepo) Create(_ context.Context, doorcard *model.Doorcard) error {
	if doorcard.DoorcardID == "" {
		m.nextID++
		doorcard.DoorcardID = fmt.Sprintf("dc-%03d", m.nextID)
	}
	// The partial unique index rejects a second active row per identity.
	if doorcard.IsActive {
		for _, d := range m.doorcards {
			if d.IsActive && d.UserID == doorcard.UserID && d.College == doorcard.College &&
				d.Term == doorcard.Term && d.Year == doorcard.Year {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if doorcard.Version == 0 {
		doorcard.Version = 1
	}
	cp := *doorcard
	m.doorcards[doorcard.DoorcardID] = &cp
	return nil
}

func (m *mockDoorcardRepo) GetByID(_ context.Context, id string) (*model.Doorcard, error) {
	if d, ok := m.doorcards[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDoorcardRepo) GetBySlug(_ context.Context, slug string) (*model.Doorcard, error) {
	for _, d := range m.doorcards {
		if d.Slug == slug {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDoorcardRepo) ListByUser(_ context.Context, userID string) ([]model.Doorcard, error) {
	var result []model.Doorcard
	for _, d := range m.doorcards {
		if d.UserID == userID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDoorcardRepo) ListByTerm(_ context.Context, termID string, term string, year string) ([]model.Doorcard, error) {
	var result []model.Doorcard
	for _, d := range m.doorcards {
		if (d.TermID != nil && *d.TermID == termID) || (d.Term == term && d.Year == year) {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDoorcardRepo) FindActiveByIdentity(_ context.Context, userID, college, term, year string, excludeID *string) (*model.Doorcard, error) {
	for _, d := range m.doorcards {
		if !d.IsActive || d.UserID != userID || d.College != college || d.Term != term || d.Year != year {
			continue
		}
		if excludeID != nil && d.DoorcardID == *excludeID {
			continue
		}
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDoorcardRepo) FindPublicBySlugOrID(_ context.Context, slugOrID string) (*model.Doorcard, error) {
	for _, d := range m.doorcards {
		if (d.Slug == slugOrID || d.DoorcardID == slugOrID) && d.IsPublic && d.IsActive {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDoorcardRepo) FindPublicByUserAndTerm(_ context.Context, userID, term, year string) (*model.Doorcard, error) {
	for _, d := range m.doorcards {
		if d.UserID == userID && d.Term == term && d.Year == year && d.IsPublic && d.IsActive {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDoorcardRepo) Update(_ context.Context, doorcard *model.Doorcard) error {
	stored, ok := m.doorcards[doorcard.DoorcardID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != doorcard.Version {
		return pkgerrors.ErrOptimisticLock
	}
	doorcard.Version++
	cp := *doorcard
	m.doorcards[doorcard.DoorcardID] = &cp
	return nil
}

func (m *mockDoorcardRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.doorcards, id)
	return nil
}

func (m *mockDoorcardRepo) ArchiveByTerm(_ context.Context, termID string, term string, year string) (int64, error) {
	var n int64
	for _, d := range m.doorcards {
		matches := (d.TermID != nil && *d.TermID == termID) || (d.Term == term && d.Year == year)
		if matches && (d.IsActive || d.IsPublic) {
			d.IsActive = false
			d.IsPublic = false
			n++
		}
	}
	return n, nil
}

// ── Mock AppointmentRepository ──

type mockAppointmentRepo struct {
	appointments map[string][]model.Appointment // doorcardID → rows
	nextID       int
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[string][]model.Appointment)}
}

func (m *mockAppointmentRepo) BatchCreate(_ context.Context, appts []model.Appointment) error {
	for i := range appts {
		if appts[i].AppointmentID == "" {
			m.nextID++
			appts[i].AppointmentID = fmt.Sprintf("appt-%03d", m.nextID)
		}
		m.appointments[appts[i].DoorcardID] = append(m.appointments[appts[i].DoorcardID], appts[i])
	}
	return nil
}

func (m *mockAppointmentRepo) ListByDoorcard(_ context.Context, doorcardID string) ([]model.Appointment, error) {
	return append([]model.Appointment(nil), m.appointments[doorcardID]...), nil
}

func (m *mockAppointmentRepo) DeleteByDoorcard(_ context.Context, doorcardID string) error {
	delete(m.appointments, doorcardID)
	return nil
}

// ── Mock DraftRepository ──

// mockDraftRepo is mutex-guarded because autosave flushes run on timer
// goroutines.
type mockDraftRepo struct {
	mu     sync.Mutex
	drafts map[string]*model.DoorcardDraft
	nextID int
}

func newMockDraftRepo() *mockDraftRepo {
	return &mockDraftRepo{drafts: make(map[string]*model.DoorcardDraft)}
}

func (m *mockDraftRepo) Create(_ context.Context, draft *model.DoorcardDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if draft.DraftID == "" {
		// Mirror the DB's gen_random_uuid() default: a generated primary
		// key never collides with an existing row.
		for {
			m.nextID++
			id := fmt.Sprintf("draft-%03d", m.nextID)
			if _, taken := m.drafts[id]; !taken {
				draft.DraftID = id
				break
			}
		}
	}
	draft.LastUpdated = time.Now()
	cp := *draft
	m.drafts[draft.DraftID] = &cp
	return nil
}

func (m *mockDraftRepo) GetByIDForUser(_ context.Context, userID, draftID string) (*model.DoorcardDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drafts[draftID]; ok && d.UserID == userID {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDraftRepo) ListByUser(_ context.Context, userID string) ([]model.DoorcardDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.DoorcardDraft
	for _, d := range m.drafts {
		if d.UserID == userID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDraftRepo) Update(_ context.Context, draft *model.DoorcardDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drafts[draft.DraftID]; !ok || d.UserID != draft.UserID {
		return gorm.ErrRecordNotFound
	}
	draft.LastUpdated = time.Now()
	cp := *draft
	m.drafts[draft.DraftID] = &cp
	return nil
}

func (m *mockDraftRepo) Delete(_ context.Context, userID, draftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drafts[draftID]; !ok || d.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(m.drafts, draftID)
	return nil
}

func (m *mockDraftRepo) DeleteAllByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.drafts {
		if d.UserID == userID {
			delete(m.drafts, id)
			n++
		}
	}
	return n, nil
}

func (m *mockDraftRepo) DeleteByOriginalDoorcard(_ context.Context, doorcardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.drafts {
		if d.OriginalDoorcardID != nil && *d.OriginalDoorcardID == doorcardID {
			delete(m.drafts, id)
		}
	}
	return nil
}

// getDraft reads one draft under the lock, for test assertions that race
// with timer flushes.
func (m *mockDraftRepo) getDraft(draftID string) *model.DoorcardDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drafts[draftID]; ok {
		cp := *d
		return &cp
	}
	return nil
}

// ── aggregate helper ──

type mockRepos struct {
	user        *mockUserRepo
	term        *mockTermRepo
	doorcard    *mockDoorcardRepo
	appointment *mockAppointmentRepo
	draft       *mockDraftRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	mocks := &mockRepos{
		user:        newMockUserRepo(),
		term:        newMockTermRepo(),
		doorcard:    newMockDoorcardRepo(),
		appointment: newMockAppointmentRepo(),
		draft:       newMockDraftRepo(),
	}
	repo := &repository.Repository{
		User:        mocks.user,
		Term:        mocks.term,
		Doorcard:    mocks.doorcard,
		Appointment: mocks.appointment,
		Draft:       mocks.draft,
	}
	return repo, mocks
}
