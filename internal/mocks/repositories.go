package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/civic-reports/internal/domain"
	"github.com/spec-kit/civic-reports/internal/repository"
)

// MockUserRepository is an in-memory UserRepository enforcing unique emails.
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*domain.User
	EmailToUser map[string]*domain.User
	CreateError error
	GetError    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:       make(map[string]*domain.User),
		EmailToUser: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.EmailToUser[user.Email]; exists {
		return repository.ErrDuplicate
	}
	stored := *user
	m.Users[user.ID] = &stored
	m.EmailToUser[user.Email] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	user, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	user, ok := m.EmailToUser[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

type reportKey struct {
	location    string
	problemType string
}

// MockReportRepository is an in-memory ReportRepository with a unique
// (location, problem type) index.
type MockReportRepository struct {
	mu          sync.Mutex
	Reports     map[string]*domain.Report
	keys        map[reportKey]string
	CreateError error
	ListError   error
	DeleteError error
	CreateCalls int
}

func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{
		Reports: make(map[string]*domain.Report),
		keys:    make(map[reportKey]string),
	}
}

func (m *MockReportRepository) Create(ctx context.Context, report *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	key := reportKey{location: report.Location, problemType: report.ProblemType}
	if _, exists := m.keys[key]; exists {
		return repository.ErrDuplicate
	}
	stored := *report
	m.Reports[report.ID] = &stored
	m.keys[key] = report.ID
	return nil
}

func (m *MockReportRepository) Update(ctx context.Context, report *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Reports[report.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = report.Status
	stored.Note = report.Note
	stored.UpdatedAt = report.UpdatedAt
	return nil
}

func (m *MockReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.Reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *report
	return &copied, nil
}

func (m *MockReportRepository) List(ctx context.Context, filter repository.ReportFilter) ([]domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]domain.Report, 0, len(m.Reports))
	for _, report := range m.Reports {
		if filter.UserID != nil && report.UserID != *filter.UserID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, report.Status) {
			continue
		}
		out = append(out, *report)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MockReportRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	report, ok := m.Reports[id]
	if !ok {
		return false, nil
	}
	delete(m.keys, reportKey{location: report.Location, problemType: report.ProblemType})
	delete(m.Reports, id)
	return true, nil
}

func containsStatus(statuses []domain.ReportStatus, status domain.ReportStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// MockReportHistoryRepository keeps history entries per report in insertion order.
type MockReportHistoryRepository struct {
	mu          sync.Mutex
	Entries     map[string][]domain.ReportHistory
	CreateError error
}

func NewMockReportHistoryRepository() *MockReportHistoryRepository {
	return &MockReportHistoryRepository{Entries: make(map[string][]domain.ReportHistory)}
}

func (m *MockReportHistoryRepository) Create(ctx context.Context, history *domain.ReportHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Entries[history.ReportID] = append(m.Entries[history.ReportID], *history)
	return nil
}

func (m *MockReportHistoryRepository) ListByReport(ctx context.Context, reportID string) ([]domain.ReportHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ReportHistory{}, m.Entries[reportID]...), nil
}

func (m *MockReportHistoryRepository) DeleteByReport(ctx context.Context, reportID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Entries, reportID)
	return nil
}
