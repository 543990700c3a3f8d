package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainuser "github.com/yungbote/veritas-backend/internal/domain/user"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/trust"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 150

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type UserService interface {
	// Register creates a participant. A nil reputation starts them at the default balance.
	Register(ctx context.Context, username string, reputation *decimal.Decimal) (*types.User, error)
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	// ReputationHistory lists the user's ledger entries, newest first.
	ReputationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ReputationEvent, error)
}

type userService struct {
	log    *logger.Logger
	cfg    trust.Config
	users  repos.UserRepo
	events repos.ReputationEventRepo
	now    func() time.Time
}

func NewUserService(baseLog *logger.Logger, cfg trust.Config, set repos.Set) UserService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &userService{
		log:    baseLog.With("service", "UserService"),
		cfg:    cfg,
		users:  set.Users,
		events: set.ReputationEvents,
		now:    time.Now,
	}
}

func validUsername(name string) bool {
	if n := utf8.RuneCountInString(name); n < usernameMinLength || n > usernameMaxLength {
		return false
	}
	return strings.IndexFunc(name, unicode.IsSpace) < 0
}

func (s *userService) Register(ctx context.Context, username string, reputation *decimal.Decimal) (*types.User, error) {
	username = strings.TrimSpace(username)
	if !validUsername(username) {
		return nil, ErrInvalidUsername
	}
	u := domainuser.New(username)
	if reputation != nil {
		if reputation.LessThan(s.cfg.ReputationFloor) || reputation.GreaterThan(s.cfg.ReputationCeiling) {
			return nil, fmt.Errorf("register user: %w: %s not in [%s, %s]", ErrInvalidReputation, reputation, s.cfg.ReputationFloor, s.cfg.ReputationCeiling)
		}
		u.Reputation = reputation.Round(trust.ReputationScale)
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.users.GetByUsername(dbc, username)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	if _, err := s.users.Create(dbc, []*types.User{u}); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	s.log.Info("User registered", "user_id", u.ID, "reputation", u.Reputation.StringFixed(trust.ReputationScale))
	return u, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) ReputationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ReputationEvent, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rows, err := s.events.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("reputation history: %w", err)
	}
	return rows, nil
}
