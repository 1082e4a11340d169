package vm

import "github.com/austinabell/nesdie/types"

// Receipt is a batch of actions scheduled on Receiver by a successful call.
// DependsOn lists the receipts (by position in the call's outcome) that must
// resolve before this one runs.
type Receipt struct {
	Receiver  types.AccountID `json:"receiver"`
	Actions   []Action        `json:"actions"`
	DependsOn []int           `json:"depends_on,omitempty"`
}

// Action is one step of a receipt.
type Action interface {
	ActionName() string
}

type CreateAccount struct{}

type DeployContract struct {
	Code []byte `json:"code"`
}

type FunctionCall struct {
	Method  string        `json:"method"`
	Args    []byte        `json:"args"`
	Deposit types.Balance `json:"deposit"`
	Gas     types.Gas     `json:"gas"`
}

type Transfer struct {
	Deposit types.Balance `json:"deposit"`
}

type Stake struct {
	Stake     types.Balance   `json:"stake"`
	PublicKey types.PublicKey `json:"public_key"`
}

// FunctionCallPermission limits an access key to calling Methods on
// Receiver. An empty Methods list allows every method.
type FunctionCallPermission struct {
	Allowance types.Balance   `json:"allowance"`
	Receiver  types.AccountID `json:"receiver"`
	Methods   []string        `json:"methods"`
}

type AddKey struct {
	PublicKey types.PublicKey `json:"public_key"`
	Nonce     uint64          `json:"nonce"`
	// Permission is nil for a full access key.
	Permission *FunctionCallPermission `json:"permission,omitempty"`
}

type DeleteKey struct {
	PublicKey types.PublicKey `json:"public_key"`
}

type DeleteAccount struct {
	Beneficiary types.AccountID `json:"beneficiary"`
}

func (CreateAccount) ActionName() string  { return "CreateAccount" }
func (DeployContract) ActionName() string { return "DeployContract" }
func (FunctionCall) ActionName() string   { return "FunctionCall" }
func (Transfer) ActionName() string       { return "Transfer" }
func (Stake) ActionName() string          { return "Stake" }
func (AddKey) ActionName() string         { return "AddKey" }
func (DeleteKey) ActionName() string      { return "DeleteKey" }
func (DeleteAccount) ActionName() string  { return "DeleteAccount" }

// promise is a handle the module holds during a call: either a single
// receipt, or a join over several.
type promise struct {
	receipt int
	joint   []int
}

func (p promise) receipts() []int {
	if p.joint != nil {
		return p.joint
	}
	return []int{p.receipt}
}
