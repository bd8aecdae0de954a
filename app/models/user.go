package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/codigarte/codigarte/internal/pkg/lives"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// DefaultModule is where every new account starts.
const DefaultModule = "variables_operators"

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"uniqueIndex;type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email    string `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password string `gorm:"type:text" json:"-" validate:"required,min=6"`

	// Free regenerating life pool. LastLifeRegenAt anchors the regeneration
	// math; nil means "just reset" (first-touch bootstrap).
	Lives           int        `gorm:"not null;default:3" json:"lives"`
	LastLifeRegenAt *time.Time `gorm:"type:timestamp;default:null" json:"-"`

	// Subscription entitlement. Expiry is applied lazily on read, see the
	// entitlements package.
	Premium          bool       `gorm:"default:false" json:"premium"`
	PremiumCancelled bool       `gorm:"default:false" json:"premium_cancelled"`
	PremiumStartedAt *time.Time `gorm:"type:timestamp;default:null" json:"premium_started_at,omitempty"`
	PremiumExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"premium_expires_at,omitempty"`

	StripeCustomerID string `gorm:"type:varchar(255);default:null" json:"-"`

	// Purchased lives carry their own accounting because refunds are prorated
	// on the unused remainder. Used never exceeds Purchased.
	PurchasedLives     int `gorm:"not null;default:0" json:"purchased_lives"`
	PurchasedLivesUsed int `gorm:"not null;default:0" json:"purchased_lives_used"`

	Level         string `gorm:"type:varchar(50);default:'beginner'" json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	CurrentModule string `gorm:"type:varchar(100);default:'variables_operators'" json:"current_module"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(name string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:          name,
		Email:         email,
		Password:      pw,
		Lives:         lives.Cap,
		Level:         LevelBeginner,
		CurrentModule: DefaultModule,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// RegenerateLives applies elapsed life regeneration in place. The caller
// persists. premiumActive comes from the entitlement guard; premium users are
// never regenerated because their lives are effectively unlimited.
func (u *User) RegenerateLives(now time.Time, premiumActive bool) {
	u.Lives, u.LastLifeRegenAt = lives.Regenerate(now, u.LastLifeRegenAt, u.Lives, premiumActive)
}

// TimeToNextLife returns the seconds until the next free life.
func (u *User) TimeToNextLife(now time.Time, premiumActive bool) int {
	return lives.TimeToNext(now, u.LastLifeRegenAt, u.Lives, premiumActive)
}

// UnusedPurchasedLives returns how many purchased lives are still unspent.
func (u *User) UnusedPurchasedLives() int {
	unused := u.PurchasedLives - u.PurchasedLivesUsed
	if unused < 0 {
		return 0
	}
	return unused
}

// UsePurchasedLife consumes one purchased life if any remain.
func (u *User) UsePurchasedLife() bool {
	if u.PurchasedLivesUsed < u.PurchasedLives {
		u.PurchasedLivesUsed++
		return true
	}
	return false
}

// AddPurchasedLives credits a confirmed lives purchase onto the account.
func (u *User) AddPurchasedLives(quantity int) {
	u.Lives += quantity
	u.PurchasedLives += quantity
}
