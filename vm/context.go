package vm

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/austinabell/nesdie/types"
)

// Context is everything the host knows about a call before it starts.
type Context struct {
	CurrentAccountID     types.AccountID `json:"current_account_id" validate:"required,account_id"`
	SignerAccountID      types.AccountID `json:"signer_account_id" validate:"required,account_id"`
	SignerAccountPK      types.PublicKey `json:"signer_account_pk"`
	PredecessorAccountID types.AccountID `json:"predecessor_account_id" validate:"required,account_id"`

	Input []byte `json:"input"`

	BlockIndex     uint64 `json:"block_index"`
	BlockTimestamp uint64 `json:"block_timestamp"`
	EpochHeight    uint64 `json:"epoch_height"`

	AccountBalance       types.Balance `json:"account_balance"`
	AccountLockedBalance types.Balance `json:"account_locked_balance"`
	StorageUsage         uint64        `json:"storage_usage"`
	AttachedDeposit      types.Balance `json:"attached_deposit"`
	PrepaidGas           types.Gas     `json:"prepaid_gas" validate:"gt=0"`

	RandomSeed []byte `json:"random_seed" validate:"omitempty,len=32"`
	IsView     bool   `json:"is_view"`

	Validators     map[types.AccountID]types.Balance `json:"validators,omitempty" validate:"dive,keys,account_id,endkeys"`
	PromiseResults []types.PromiseResult             `json:"-"`
}

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

// ValidAccountID reports whether id is a well-formed account identifier:
// 2 to 64 bytes of lowercase alphanumerics separated by '-', '_' or '.'.
func ValidAccountID(id types.AccountID) bool {
	return len(id) >= 2 && len(id) <= 64 && accountIDPattern.MatchString(string(id))
}

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("account_id", func(fl validator.FieldLevel) bool {
		return ValidAccountID(types.AccountID(fl.Field().String()))
	})
	return v
}

// Validate checks the context before a call runs.
func (c *Context) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid call context: %w", err)
	}
	return nil
}
