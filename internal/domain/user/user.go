package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultReputation is the balance every new participant starts with.
var DefaultReputation = decimal.NewFromInt(50)

// User is a participant. Reputation is only written through the reputation ledger
// and always stays inside [0,100].
type User struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Username   string          `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Reputation decimal.Decimal `gorm:"type:numeric(5,2);not null;column:reputation" json:"reputation"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user_account" }

// New returns an unsaved participant with the starting reputation.
func New(username string) *User {
	return &User{
		ID:         uuid.New(),
		Username:   username,
		Reputation: DefaultReputation,
	}
}
