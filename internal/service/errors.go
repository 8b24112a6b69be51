package service

import (
	"errors"

	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
	"github.com/yabaapp/yaba-server/internal/store"
)

// Response messages surfaced to API clients.
const (
	msgCouldNotCreateTag   = "Could not create tag"
	msgAlreadyHasTag       = "Transaction already has tag"
	msgTagToUpdateMissing  = "Could not find tag to update"
	msgCouldNotDetachTag   = "Could not delete tag from transaction"
	msgTagNotOnTransaction = "Tag is not attached to transaction"
)

// translateStoreError maps store sentinels onto the domain taxonomy so
// handlers only ever see *domainerrors.Error for expected conditions.
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	var se *store.Error
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(se.Message)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(se.Message)
	default:
		return err
	}
}
