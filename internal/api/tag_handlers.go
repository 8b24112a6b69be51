package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/yabaapp/yaba-server/internal/domain"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/tags",
		Summary:     "List tags",
		Description: "Returns the caller's tags ordered by name",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "attachTag",
		Method:      http.MethodPost,
		Path:        "/api/transaction-items/{transaction_id}/tags",
		Summary:     "Tag a transaction",
		Description: "Finds or creates the named tag and attaches it to the transaction",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAttachTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPost,
		Path:        "/api/transaction-items/{transaction_id}/tags/update",
		Summary:     "Rename a tag on a transaction",
		Description: "Renames in place, merges into an existing tag, or forks a new tag when the old one is shared",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "detachTag",
		Method:      http.MethodPost,
		Path:        "/api/transaction-items/{transaction_id}/tags/delete",
		Summary:     "Remove a tag from a transaction",
		Description: "Detaches the tag and deletes it when no other transaction uses it",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDetachTag)
}

// === DTOs ===

// ListTagsOutput contains the caller's tags.
type ListTagsOutput struct {
	Body []TagResponse
}

// AttachTagRequest names the tag to attach.
type AttachTagRequest struct {
	Name string `json:"name" doc:"Tag name; an existing tag is reused ignoring case"`
}

// AttachTagInput wraps the attach request for Huma.
type AttachTagInput struct {
	TransactionID string `path:"transaction_id" doc:"Transaction ID"`
	Body          AttachTagRequest
}

// UpdateTagRequest selects a tag by id, or by current_name when id is
// empty, and gives it a new name on this transaction.
type UpdateTagRequest struct {
	ID          string `json:"id,omitempty" doc:"ID of the tag to rename"`
	CurrentName string `json:"current_name,omitempty" doc:"Current tag name, used when id is empty"`
	Name        string `json:"name" doc:"New tag name"`
}

// UpdateTagInput wraps the update request for Huma.
type UpdateTagInput struct {
	TransactionID string `path:"transaction_id" doc:"Transaction ID"`
	Body          UpdateTagRequest
}

// DetachTagRequest selects the tag to remove.
type DetachTagRequest struct {
	ID   string `json:"id,omitempty" doc:"Tag ID; wins over name"`
	Name string `json:"name,omitempty" doc:"Tag name, matched ignoring case"`
}

// DetachTagInput wraps the detach request for Huma.
type DetachTagInput struct {
	TransactionID string `path:"transaction_id" doc:"Transaction ID"`
	Body          DetachTagRequest
}

// TagBody is a tag result with the outcome message.
type TagBody struct {
	Message string      `json:"message"`
	Tag     TagResponse `json:"data"`
}

func (b TagBody) envelope() (string, any) { return b.Message, b.Tag }

// TagOutput wraps a tag result for Huma.
type TagOutput struct {
	Body TagBody
}

func tagOutput(msg string, tag *domain.Tag, txnID string) *TagOutput {
	resp := toTagResponse(tag)
	resp.TransactionID = txnID
	return &TagOutput{Body: TagBody{Message: msg, Tag: resp}}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tags.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListTagsOutput{Body: toTagResponses(tags)}, nil
}

func (s *Server) handleAttachTag(ctx context.Context, input *AttachTagInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tags.AddTagToTransaction(ctx, userID, input.TransactionID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return tagOutput(msgTagSaved, tag, input.TransactionID), nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	ident := domain.TagIdentity{ID: input.Body.ID, Name: input.Body.CurrentName}
	tag, outcome, err := s.services.Tags.UpdateTagOnTransaction(ctx, userID, input.TransactionID, ident, input.Body.Name)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tag updated on transaction",
		"transaction_id", input.TransactionID,
		"tag_id", tag.ID,
		"outcome", outcome.String(),
	)
	return tagOutput(msgTagUpdated, tag, input.TransactionID), nil
}

func (s *Server) handleDetachTag(ctx context.Context, input *DetachTagInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	ident := domain.TagIdentity{ID: input.Body.ID, Name: input.Body.Name}
	tag, _, err := s.services.Tags.RemoveTagFromTransaction(ctx, userID, input.TransactionID, ident)
	if err != nil {
		return nil, err
	}
	return tagOutput(msgTagDeleted, tag, input.TransactionID), nil
}
