package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/port"
)

type NoteInput struct {
	Content string
}

type VolunteerInput struct {
	Name         string
	Email        string
	Phone        string
	Availability string
}

type BudgetEntryInput struct {
	Description string
	Category    string
	Amount      decimal.Decimal
	Date        time.Time
}

type DonationInput struct {
	DonorName   string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
}

// RecordService handles the plain owner-scoped records: notes, volunteers,
// budget entries and donations.
type RecordService struct {
	repo   port.RecordRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewRecordService(repo port.RecordRepository, logger zerolog.Logger) *RecordService {
	return &RecordService{
		repo:   repo,
		logger: logger.With().Str("component", "records").Logger(),
		now:    time.Now,
	}
}

func (s *RecordService) CreateNote(ctx context.Context, ownerID string, in NoteInput) (domain.Note, error) {
	if ownerID == "" {
		return domain.Note{}, ErrUnauthorized
	}
	if strings.TrimSpace(in.Content) == "" {
		return domain.Note{}, &ValidationError{Problems: []string{"content is required"}}
	}
	note := domain.Note{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Content:   in.Content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return domain.Note{}, s.fail("create note", ownerID, err)
	}
	return note, nil
}

func (s *RecordService) ListNotes(ctx context.Context, ownerID string) ([]domain.Note, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	notes, err := s.repo.ListNotes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *RecordService) DeleteNote(ctx context.Context, ownerID, id string) (bool, error) {
	if ownerID == "" {
		return false, ErrUnauthorized
	}
	return s.deleted("delete note", ownerID)(s.repo.DeleteNote(ctx, id, ownerID))
}

func (s *RecordService) CreateVolunteer(ctx context.Context, ownerID string, in VolunteerInput) (domain.Volunteer, error) {
	if ownerID == "" {
		return domain.Volunteer{}, ErrUnauthorized
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Volunteer{}, &ValidationError{Problems: []string{"name is required"}}
	}
	v := domain.Volunteer{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Availability: in.Availability,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateVolunteer(ctx, v); err != nil {
		return domain.Volunteer{}, s.fail("create volunteer", ownerID, err)
	}
	return v, nil
}

func (s *RecordService) ListVolunteers(ctx context.Context, ownerID string) ([]domain.Volunteer, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	vs, err := s.repo.ListVolunteers(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	return vs, nil
}

func (s *RecordService) DeleteVolunteer(ctx context.Context, ownerID, id string) (bool, error) {
	if ownerID == "" {
		return false, ErrUnauthorized
	}
	return s.deleted("delete volunteer", ownerID)(s.repo.DeleteVolunteer(ctx, id, ownerID))
}

func (s *RecordService) CreateBudgetEntry(ctx context.Context, ownerID string, in BudgetEntryInput) (domain.BudgetEntry, error) {
	if ownerID == "" {
		return domain.BudgetEntry{}, ErrUnauthorized
	}
	if strings.TrimSpace(in.Description) == "" {
		return domain.BudgetEntry{}, &ValidationError{Problems: []string{"description is required"}}
	}
	b := domain.BudgetEntry{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Description: in.Description,
		Category:    in.Category,
		Amount:      in.Amount,
		Date:        s.dateOrToday(in.Date),
	}
	if err := s.repo.CreateBudgetEntry(ctx, b); err != nil {
		return domain.BudgetEntry{}, s.fail("create budget entry", ownerID, err)
	}
	return b, nil
}

func (s *RecordService) ListBudgetEntries(ctx context.Context, ownerID string) ([]domain.BudgetEntry, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	bs, err := s.repo.ListBudgetEntries(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budget entries: %w", err)
	}
	return bs, nil
}

func (s *RecordService) DeleteBudgetEntry(ctx context.Context, ownerID, id string) (bool, error) {
	if ownerID == "" {
		return false, ErrUnauthorized
	}
	return s.deleted("delete budget entry", ownerID)(s.repo.DeleteBudgetEntry(ctx, id, ownerID))
}

func (s *RecordService) CreateDonation(ctx context.Context, ownerID string, in DonationInput) (domain.Donation, error) {
	if ownerID == "" {
		return domain.Donation{}, ErrUnauthorized
	}
	verr := &ValidationError{}
	if strings.TrimSpace(in.DonorName) == "" {
		verr.add("donor name is required")
	}
	if in.Amount.IsNegative() {
		verr.add("amount must not be negative")
	}
	if err := verr.orNil(); err != nil {
		return domain.Donation{}, err
	}
	d := domain.Donation{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		DonorName:   in.DonorName,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        s.dateOrToday(in.Date),
	}
	if err := s.repo.CreateDonation(ctx, d); err != nil {
		return domain.Donation{}, s.fail("create donation", ownerID, err)
	}
	return d, nil
}

func (s *RecordService) ListDonations(ctx context.Context, ownerID string) ([]domain.Donation, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	ds, err := s.repo.ListDonations(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return ds, nil
}

func (s *RecordService) DeleteDonation(ctx context.Context, ownerID, id string) (bool, error) {
	if ownerID == "" {
		return false, ErrUnauthorized
	}
	return s.deleted("delete donation", ownerID)(s.repo.DeleteDonation(ctx, id, ownerID))
}

func (s *RecordService) dateOrToday(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC().Truncate(24 * time.Hour)
	}
	return t
}

func (s *RecordService) fail(op, ownerID string, err error) error {
	s.logger.Error().Err(err).Str("owner", ownerID).Msg(op + " failed")
	return fmt.Errorf("%s: %w", op, err)
}

func (s *RecordService) deleted(op, ownerID string) func(bool, error) (bool, error) {
	return func(ok bool, err error) (bool, error) {
		if err != nil {
			return false, s.fail(op, ownerID, err)
		}
		return ok, nil
	}
}
