// Package accounts は当座・普通口座の管理機能を提供します。
package accounts

import "time"

// Type は口座種別を表します。
type Type string

const (
	TypeChecking Type = "checking"
	TypeSavings  Type = "savings"
)

// Status は口座の状態を表します。
type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
	StatusClosed Status = "closed"
)

// 口座種別ごとの最低開設預入額（セント単位）。
var minimumDepositCents = map[Type]int64{
	TypeChecking: 2500,  // $25.00
	TypeSavings:  10000, // $100.00
}

// Account は 1 つの口座を表します。残高はセント単位の整数で保持します。
type Account struct {
	AccountID    string    `json:"accountId"`
	UserID       string    `json:"userId"`
	Type         Type      `json:"accountType"`
	Nickname     string    `json:"nickname,omitempty"`
	BalanceCents int64     `json:"balanceCents"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateInput は口座開設の入力です。
type CreateInput struct {
	Type                Type   `json:"accountType" binding:"required"`
	Nickname            string `json:"nickname"`
	InitialDepositCents int64  `json:"initialDepositCents" binding:"required"`
}

// UpdateInput は口座更新の入力です。nil のフィールドは変更しません。
type UpdateInput struct {
	Nickname *string `json:"nickname"`
	Status   *Status `json:"status"`
}
