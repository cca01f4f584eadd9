package http

import (
	"context"

	"github.com/go-playground/validator/v10"

	"treasury/internal/core"
	"treasury/internal/forecast"
	"treasury/internal/report"
	"treasury/internal/services"
)

var validate = validator.New()

// CategoryRegistry is the mutable per-kind category set.
type CategoryRegistry interface {
	ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error)
	AddCategory(ctx context.Context, kind core.Kind, name string) (int64, error)
	RenameCategory(ctx context.Context, kind core.Kind, id int64, newName string) error
	DeleteCategory(ctx context.Context, kind core.Kind, id int64) error
}

// DirectoryStore covers members, activities and attendance.
type DirectoryStore interface {
	CreateMember(ctx context.Context, m core.Member) (int64, error)
	UpdateMember(ctx context.Context, m core.Member) error
	DeleteMember(ctx context.Context, id int64) error
	GetMember(ctx context.Context, id int64) (core.Member, error)
	ListMembers(ctx context.Context) ([]core.Member, error)

	CreateActivity(ctx context.Context, a core.Activity) (int64, error)
	UpdateActivity(ctx context.Context, a core.Activity) error
	DeleteActivity(ctx context.Context, id int64) error
	GetActivity(ctx context.Context, id int64) (core.Activity, error)
	ListActivities(ctx context.Context) ([]core.Activity, error)

	GetAttendance(ctx context.Context, activityID int64) ([]int64, error)
	SetAttendance(ctx context.Context, activityID int64, memberIDs []int64) error
}

// SettingsStore covers the org profile and the audit trail.
type SettingsStore interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	UpdateSetting(ctx context.Context, key, value string) error
	ListAudit(ctx context.Context) ([]core.AuditEntry, error)
	AppendAudit(ctx context.Context, username, action, details string) error
}

// Requests

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type transactionRequest struct {
	Amount        string `json:"amount" validate:"required"`
	Date          string `json:"date" validate:"required"`
	Category      string `json:"category" validate:"required"`
	Description   string `json:"description" validate:"max=200"`
	Notes         string `json:"notes"`
	Payer         string `json:"payer"`
	AttachmentRef string `json:"attachment_ref"`
}

func (req transactionRequest) toDomain(kind core.Kind) (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Kind:          kind,
		Amount:        amount,
		Date:          date,
		Category:      req.Category,
		Description:   req.Description,
		Notes:         req.Notes,
		Payer:         req.Payer,
		AttachmentRef: req.AttachmentRef,
	}, nil
}

type memberRequest struct {
	FullName string `json:"full_name" validate:"required"`
	JoinDate string `json:"join_date" validate:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

type activityRequest struct {
	Name        string `json:"name" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type attendanceRequest struct {
	MemberIDs []int64 `json:"member_ids" validate:"required"`
}

type categoryRequest struct {
	Kind core.Kind `json:"kind" validate:"required,oneof=income expense"`
	Name string    `json:"name" validate:"required"`
}

type settingRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

type userRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin treasurer viewer"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// Responses

type loginResponse struct {
	Token              string `json:"token"`
	Username           string `json:"username"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password"`
}

type transactionResponse struct {
	ID            int64  `json:"id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Category      string `json:"category"`
	Description   string `json:"description,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Payer         string `json:"payer,omitempty"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Kind:          string(t.Kind),
		Amount:        t.Amount.String(),
		Date:          t.Date.String(),
		Category:      t.Category,
		Description:   t.Description,
		Notes:         t.Notes,
		Payer:         t.Payer,
		AttachmentRef: t.AttachmentRef,
	}
}

type overviewResponse struct {
	TotalIncome  string `json:"total_income"`
	TotalExpense string `json:"total_expense"`
	Balance      string `json:"balance"`
}

func toOverviewResponse(o services.Overview) overviewResponse {
	return overviewResponse{
		TotalIncome:  o.TotalIncome.String(),
		TotalExpense: o.TotalExpense.String(),
		Balance:      o.Balance.String(),
	}
}

type periodPairResponse struct {
	Period  string `json:"period"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type periodSummaryResponse struct {
	Granularity string               `json:"granularity"`
	Periods     []periodPairResponse `json:"periods"`
	Skipped     int                  `json:"skipped_records"`
}

type categorySummaryResponse struct {
	Kind   string            `json:"kind"`
	Totals map[string]string `json:"totals"`
}

type balancePointResponse struct {
	Date    string `json:"date"`
	Balance string `json:"balance"`
}

type balanceSeriesResponse struct {
	Points  []balancePointResponse `json:"points"`
	Skipped int                    `json:"skipped_records"`
}

func toBalancePoints(points []report.BalancePoint) []balancePointResponse {
	out := make([]balancePointResponse, len(points))
	for i, p := range points {
		out[i] = balancePointResponse{Date: p.Date.String(), Balance: p.Balance.String()}
	}
	return out
}

type forecastResponse struct {
	InsufficientData bool                   `json:"insufficient_data"`
	Slope            float64                `json:"slope"`
	Points           []balancePointResponse `json:"points"`
}

func toForecastResponse(res forecast.Result) forecastResponse {
	return forecastResponse{
		InsufficientData: res.Insufficient,
		Slope:            res.Slope,
		Points:           toBalancePoints(res.Points),
	}
}

type memberResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	JoinDate string `json:"join_date"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Status   string `json:"status"`
	Notes    string `json:"notes,omitempty"`
}

func toMemberResponse(m core.Member) memberResponse {
	return memberResponse{
		ID:       m.ID,
		FullName: m.FullName,
		JoinDate: m.JoinDate.String(),
		Phone:    m.Phone,
		Address:  m.Address,
		Status:   m.Status,
		Notes:    m.Notes,
	}
}

type activityResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

func toActivityResponse(a core.Activity) activityResponse {
	return activityResponse{
		ID:          a.ID,
		Name:        a.Name,
		Date:        a.Date.String(),
		Location:    a.Location,
		Description: a.Description,
	}
}

type userResponse struct {
	ID                 int64  `json:"id"`
	Username           string `json:"username"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Role:               u.Role,
		MustChangePassword: u.MustChangePassword,
	}
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type auditEntryResponse struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
}
