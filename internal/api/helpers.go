package api

import (
	"errors"
	"time"

	"github.com/yabaapp/yaba-server/internal/domain"
	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
)

// TagResponse is the JSON shape of a tag.
type TagResponse struct {
	ID            string `json:"id" doc:"Tag ID"`
	Name          string `json:"name" doc:"Tag name as first entered"`
	TransactionID string `json:"transaction_id,omitempty" doc:"Transaction the operation applied to"`
}

// TransactionResponse is the JSON shape of a transaction. Tags are sorted by name.
type TransactionResponse struct {
	ID          string        `json:"id" doc:"Transaction ID"`
	Description string        `json:"description" doc:"Free-text description"`
	Value       string        `json:"value" doc:"Signed amount with two decimals; negative is an expense"`
	Date        time.Time     `json:"date" doc:"Transaction date"`
	Tags        []TagResponse `json:"tags" doc:"Attached tags ordered by name"`
}

func toTagResponse(tag *domain.Tag) TagResponse {
	return TagResponse{ID: tag.ID, Name: tag.Name}
}

func toTagResponses(tags []*domain.Tag) []TagResponse {
	out := make([]TagResponse, len(tags))
	for i, tag := range tags {
		out[i] = toTagResponse(tag)
	}
	return out
}

func toTransactionResponse(txn *domain.Transaction) TransactionResponse {
	txn.SortTags()
	return TransactionResponse{
		ID:          txn.ID,
		Description: txn.Description,
		Value:       txn.Value.StringFixed(2),
		Date:        txn.Date,
		Tags:        toTagResponses(txn.Tags),
	}
}

func toTransactionResponses(txns []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		out[i] = toTransactionResponse(txn)
	}
	return out
}

// relabel replaces the message of an expected client-facing failure
// (validation or not found) with msg. Other errors pass through untouched.
func relabel(err error, msg string) error {
	var de *domainerrors.Error
	if !errors.As(err, &de) {
		return err
	}
	switch de.Code {
	case domainerrors.CodeValidation, domainerrors.CodeNotFound:
		return de.WithMessage(msg)
	default:
		return err
	}
}
