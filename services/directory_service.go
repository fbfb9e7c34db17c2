package services

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fences-bot/domain"
	apperrors "fences-bot/errors"
	"fences-bot/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type IDirectoryService interface {
	Load() domain.Directory
	Invalidate()
	IsMember(username string) bool
	IsAdmin(username string) bool
	LabelOf(username string) (string, bool)
	Resolve(identifier string) (domain.Member, bool)
	Labels(role domain.Role) []string
	Usernames(role domain.Role) []string
	Contacts(role domain.Role) map[string]string
	AddMember(username, label string, isAdmin bool) error
	RemoveMember(identifier string) error
	SetAdminFlag(identifier string, isAdmin bool) error
	SetExpiration(raw string) error
	ExpirationAt() *time.Time
	UpdateDeliveryAddress(username string, address int64) error
	BoardOf(username string) (domain.Board, error)
	SaveEntry(recipientLabel, alias, senderUsername string, chunks []domain.Chunk) error
}

// DirectoryService is the single source of truth for directory queries
// and mutations. It keeps a process-wide cache of the settings
// singleton; every mutation writes to the store first and then drops
// the cache. A single mutation lock serializes check-then-act
// sequences, so two concurrent adds cannot both pass the duplicate
// check.
type DirectoryService struct {
	repo           repositories.IDirectoryRepository
	log            *slog.Logger
	datetimeLayout string
	aliasByteLimit int

	mu     sync.RWMutex
	cached *domain.Directory

	writeMu sync.Mutex
}

func NewDirectoryService(repo repositories.IDirectoryRepository, log *slog.Logger, datetimeLayout string, aliasByteLimit int) *DirectoryService {
	return &DirectoryService{
		repo:           repo,
		log:            log,
		datetimeLayout: datetimeLayout,
		aliasByteLimit: aliasByteLimit,
	}
}

// Load returns the cached directory, fetching it from the store on a
// cache miss. A store failure degrades to an empty directory so that
// read paths never surface infrastructure errors to the dialogue.
func (s *DirectoryService) Load() domain.Directory {
	s.mu.RLock()
	if s.cached != nil {
		dir := *s.cached
		s.mu.RUnlock()
		return dir
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached
	}

	dir, _, err := s.repo.GetSettings()
	if err != nil {
		s.log.Error("Directory load failed, serving empty directory", "err", err)
		return domain.Directory{}
	}
	s.cached = &dir
	return dir
}

// Invalidate drops the cache; the next Load re-fetches from the store.
func (s *DirectoryService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *DirectoryService) IsMember(username string) bool {
	_, ok := s.Load().FindByUsername(username)
	return ok
}

func (s *DirectoryService) IsAdmin(username string) bool {
	member, ok := s.Load().FindByUsername(username)
	return ok && member.IsAdmin
}

func (s *DirectoryService) LabelOf(username string) (string, bool) {
	member, ok := s.Load().FindByUsername(username)
	return member.Label, ok
}

func (s *DirectoryService) Resolve(identifier string) (domain.Member, bool) {
	return s.Load().Resolve(identifier)
}

func (s *DirectoryService) Labels(role domain.Role) []string {
	return lo.Map(s.Load().WithRole(role), func(m domain.Member, _ int) string { return m.Label })
}

func (s *DirectoryService) Usernames(role domain.Role) []string {
	return lo.Map(s.Load().WithRole(role), func(m domain.Member, _ int) string { return m.Username })
}

// Contacts projects the directory as a label -> username map, the shape
// the recipient keyboards are built from.
func (s *DirectoryService) Contacts(role domain.Role) map[string]string {
	return lo.SliceToMap(s.Load().WithRole(role), func(m domain.Member) (string, string) {
		return m.Label, m.Username
	})
}

// Usernames come without the leading @, matching the external identity
// the transport reports.
type newMember struct {
	Username string `validate:"required,excludesall=@"`
	Label    string `validate:"required"`
}

// AddMember enforces both uniqueness invariants before the write. The
// member and their empty board are created in one store transaction.
func (s *DirectoryService) AddMember(username, label string, isAdmin bool) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := validate.Struct(newMember{Username: username, Label: label}); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidCharacters, err)
	}
	if err := domain.ValidateAlias(label, s.aliasByteLimit); err != nil {
		return err
	}

	dir := s.Load()
	if _, ok := dir.FindByUsername(username); ok {
		return apperrors.ErrDuplicateUsername
	}
	if _, ok := dir.FindByLabel(label); ok {
		return apperrors.ErrDuplicateLabel
	}

	if err := s.repo.AddMember(domain.Member{Username: username, Label: label, IsAdmin: isAdmin}); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	s.Invalidate()
	s.log.Info("Member added", "username", username, "is_admin", isAdmin)
	return nil
}

// RemoveMember resolves a label or username and deletes the member plus
// their board. Removing an unknown member is a silent no-op.
func (s *DirectoryService) RemoveMember(identifier string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	member, ok := s.Load().Resolve(identifier)
	if !ok {
		return nil
	}
	if err := s.repo.RemoveMember(member.Username); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.Invalidate()
	s.log.Info("Member removed", "username", member.Username)
	return nil
}

func (s *DirectoryService) SetAdminFlag(identifier string, isAdmin bool) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	member, ok := s.Load().Resolve(identifier)
	if !ok {
		return apperrors.ErrMemberNotFound
	}
	if err := s.repo.SetAdminFlag(member.Username, isAdmin); err != nil {
		return fmt.Errorf("set admin flag: %w", err)
	}
	s.Invalidate()
	s.log.Info("Admin flag changed", "username", member.Username, "is_admin", isAdmin)
	return nil
}

// SetExpiration parses the raw input against the configured layout.
// Past-dated timestamps are accepted; the monitor flips the expired
// flag on its next tick.
func (s *DirectoryService) SetExpiration(raw string) error {
	at, err := time.ParseInLocation(s.datetimeLayout, raw, time.Local)
	if err != nil {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidTimestamp, raw)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.repo.SetExpiration(&at); err != nil {
		return fmt.Errorf("set expiration: %w", err)
	}
	s.Invalidate()
	s.log.Info("Expiration updated", "at", at)
	return nil
}

func (s *DirectoryService) ExpirationAt() *time.Time {
	return s.Load().ExpirationAt
}

func (s *DirectoryService) UpdateDeliveryAddress(username string, address int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, ok := s.Load().FindByUsername(username); !ok {
		return apperrors.ErrMemberNotFound
	}
	if err := s.repo.SetDeliveryAddress(username, address); err != nil {
		return fmt.Errorf("update delivery address: %w", err)
	}
	s.Invalidate()
	return nil
}

func (s *DirectoryService) BoardOf(username string) (domain.Board, error) {
	board, found, err := s.repo.GetBoard(username)
	if err != nil {
		return domain.Board{}, fmt.Errorf("board of %q: %w", username, err)
	}
	if !found {
		return domain.Board{}, apperrors.ErrBoardNotFound
	}
	return board, nil
}

// SaveEntry commits a composed note: resolves the recipient label,
// enforces per-recipient alias uniqueness, and appends the entry.
func (s *DirectoryService) SaveEntry(recipientLabel, alias, senderUsername string, chunks []domain.Chunk) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	recipient, ok := s.Load().FindByLabel(recipientLabel)
	if !ok {
		return apperrors.ErrMemberNotFound
	}

	board, found, err := s.repo.GetBoard(recipient.Username)
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	if found && board.HasAlias(alias) {
		return apperrors.ErrDuplicateAlias
	}

	entry := domain.NewEntry(alias, senderUsername, chunks)
	if err := s.repo.AppendEntry(recipient.Username, entry); err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	s.log.Info("Board entry saved", "recipient", recipient.Username, "parts", len(chunks))
	return nil
}
