package api

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/yabaapp/yaba-server/internal/domain"
	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
	"github.com/yabaapp/yaba-server/internal/query"
	"github.com/yabaapp/yaba-server/internal/service"
)

func (s *Server) registerTransactionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTransactions",
		Method:      http.MethodGet,
		Path:        "/api/transaction-items",
		Summary:     "List transactions",
		Description: "Filters, sorts, and pages the caller's transactions. Count and total cover the whole filtered set.",
		Tags:        []string{"Transactions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTransactions)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTransaction",
		Method:        http.MethodPost,
		Path:          "/api/transaction-items",
		Summary:       "Create transaction",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTransaction)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTransaction",
		Method:      http.MethodPost,
		Path:        "/api/transaction-item/update",
		Summary:     "Update transaction",
		Description: "Changes any subset of description, value, and date. Nothing is saved unless every field is valid.",
		Tags:        []string{"Transactions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTransaction)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTransaction",
		Method:      http.MethodPost,
		Path:        "/api/transaction-item/delete",
		Summary:     "Delete transaction",
		Description: "Deletes the transaction and any tag no other transaction uses. Returns the deleted transaction.",
		Tags:        []string{"Transactions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTransaction)
}

// === DTOs ===

// ListTransactionsInput contains the fetch filter.
type ListTransactionsInput struct {
	Limit         int      `query:"limit" doc:"Page size (default 20)"`
	Page          int      `query:"page" doc:"Zero-based page number"`
	TagNames      []string `query:"tag_names,explode" doc:"Tag names to filter by; repeat the parameter for several"`
	TagNamesList  []string `query:"tag_names[],explode" doc:"Bracketed form of tag_names; both forms are merged"`
	MatchAllTags  string   `query:"match_all_tags" doc:"true (default) requires every tag, false requires any"`
	FromDate      string   `query:"from_date" doc:"Inclusive lower date bound"`
	ToDate        string   `query:"to_date" doc:"Inclusive upper date bound"`
	Description   string   `query:"description" doc:"Case-insensitive description substring"`
	SortAttribute string   `query:"sort_attribute" doc:"date (default), value, or description"`
	SortOrder     string   `query:"sort_order" doc:"asc or desc; default depends on the attribute"`
}

// TransactionListResponse is one page of transactions plus whole-set aggregates.
type TransactionListResponse struct {
	Count        int                   `json:"count" doc:"Number of matching transactions across all pages"`
	TotalAmount  string                `json:"total_amount" doc:"Sum of matching values, rounded to cents"`
	Page         int                   `json:"page" doc:"Page returned"`
	Limit        int                   `json:"limit" doc:"Page size used"`
	Transactions []TransactionResponse `json:"transactions" doc:"Transactions on this page"`
}

func (r TransactionListResponse) envelope() (string, any) { return msgTransactionsFetched, r }

// TransactionListOutput wraps the list response for Huma.
type TransactionListOutput struct {
	Body TransactionListResponse
}

// CreateTransactionRequest is the request body for creating a transaction.
type CreateTransactionRequest struct {
	Description string `json:"description" doc:"Free-text description; #hashtags are kept verbatim"`
	Value       string `json:"value" doc:"Signed amount, e.g. -12.50 or $1,200"`
	Date        string `json:"date" doc:"Date, e.g. 2018-01-31 or January 31 2018"`
}

// CreateTransactionInput wraps the create request for Huma.
type CreateTransactionInput struct {
	Body CreateTransactionRequest
}

// UpdateTransactionRequest is the request body for updating a transaction.
type UpdateTransactionRequest struct {
	ID          string  `json:"id" doc:"Transaction ID"`
	Description *string `json:"description,omitempty" doc:"New description"`
	Value       *string `json:"value,omitempty" doc:"New value"`
	Date        *string `json:"date,omitempty" doc:"New date"`
}

// UpdateTransactionInput wraps the update request for Huma.
type UpdateTransactionInput struct {
	Body UpdateTransactionRequest
}

// DeleteTransactionRequest names the transaction to delete.
type DeleteTransactionRequest struct {
	ID string `json:"id" doc:"Transaction ID"`
}

// DeleteTransactionInput wraps the delete request for Huma.
type DeleteTransactionInput struct {
	Body DeleteTransactionRequest
}

// TransactionBody is a single transaction with the outcome message.
type TransactionBody struct {
	Message     string              `json:"message"`
	Transaction TransactionResponse `json:"data"`
}

func (b TransactionBody) envelope() (string, any) { return b.Message, b.Transaction }

// TransactionOutput wraps a single transaction for Huma.
type TransactionOutput struct {
	Body TransactionBody
}

// === Handlers ===

func (s *Server) handleListTransactions(ctx context.Context, input *ListTransactionsInput) (*TransactionListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := input.filter()
	if err != nil {
		return nil, err
	}

	result, err := s.services.Transactions.Fetch(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if !result.Found() {
		return nil, domainerrors.Validation(msgCouldNotFetch)
	}

	return &TransactionListOutput{
		Body: TransactionListResponse{
			Count:        result.Count,
			TotalAmount:  result.RoundedTotal().StringFixed(2),
			Page:         result.Page,
			Limit:        result.Limit,
			Transactions: toTransactionResponses(result.Transactions),
		},
	}, nil
}

// filter converts the raw query parameters. Dates and match_all_tags that do
// not parse are rejected together.
func (in *ListTransactionsInput) filter() (query.Filter, error) {
	f := query.Filter{
		TagNames:      slices.Concat(in.TagNames, in.TagNamesList),
		Description:   in.Description,
		SortAttribute: in.SortAttribute,
		SortOrder:     in.SortOrder,
		Limit:         in.Limit,
		Page:          in.Page,
	}

	fieldErrs := map[string]string{}
	if raw := strings.TrimSpace(in.MatchAllTags); raw != "" {
		matchAll, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrs["match_all_tags"] = "must be true or false"
		} else {
			f.MatchAllTags = &matchAll
		}
	}
	f.FromDate = parseDateParam(fieldErrs, "from_date", in.FromDate)
	f.ToDate = parseDateParam(fieldErrs, "to_date", in.ToDate)

	if len(fieldErrs) > 0 {
		return query.Filter{}, domainerrors.ValidationWithDetails(msgCouldNotFetch, fieldErrs)
	}
	return f, nil
}

func parseDateParam(fieldErrs map[string]string, field, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		fieldErrs[field] = "must be a recognised date"
		return nil
	}
	return &d
}

func (s *Server) handleCreateTransaction(ctx context.Context, input *CreateTransactionInput) (*TransactionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	txn, err := s.services.Transactions.Create(ctx, userID, service.CreateTransactionRequest{
		Description: input.Body.Description,
		Value:       input.Body.Value,
		Date:        input.Body.Date,
	})
	if err != nil {
		return nil, relabel(err, msgCouldNotCreate)
	}

	return &TransactionOutput{
		Body: TransactionBody{Message: msgTransactionCreated, Transaction: toTransactionResponse(txn)},
	}, nil
}

func (s *Server) handleUpdateTransaction(ctx context.Context, input *UpdateTransactionInput) (*TransactionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	txn, err := s.services.Transactions.Update(ctx, userID, service.UpdateTransactionRequest{
		ID:          input.Body.ID,
		Description: input.Body.Description,
		Value:       input.Body.Value,
		Date:        input.Body.Date,
	})
	if err != nil {
		return nil, relabel(err, msgCouldNotUpdate)
	}

	return &TransactionOutput{
		Body: TransactionBody{Message: msgTransactionUpdated, Transaction: toTransactionResponse(txn)},
	}, nil
}

func (s *Server) handleDeleteTransaction(ctx context.Context, input *DeleteTransactionInput) (*TransactionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.services.Transactions.DestroyWithTags(ctx, userID, input.Body.ID)
	if err != nil {
		return nil, relabel(err, msgCouldNotDelete)
	}

	return &TransactionOutput{
		Body: TransactionBody{Message: msgTransactionDeleted, Transaction: toTransactionResponse(snapshot)},
	}, nil
}
