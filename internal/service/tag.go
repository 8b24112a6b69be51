package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yabaapp/yaba-server/internal/domain"
	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
	"github.com/yabaapp/yaba-server/internal/id"
	"github.com/yabaapp/yaba-server/internal/store"
	"github.com/yabaapp/yaba-server/internal/validation"
)

// tagNameRules apply to every tag name before it is stored.
const tagNameRules = "notblank,max=255"

// RenameOutcome reports which branch of a rename was taken.
type RenameOutcome int

const (
	// RenamedInPlace means the tag itself was renamed; no links changed.
	RenamedInPlace RenameOutcome = iota
	// RenameMerged means the transaction moved onto an existing tag with the new name.
	RenameMerged
	// RenameForked means a new tag was created for the transaction and the
	// original kept its other links.
	RenameForked
)

func (o RenameOutcome) String() string {
	switch o {
	case RenameMerged:
		return "merged"
	case RenameForked:
		return "forked"
	default:
		return "renamed"
	}
}

// TagService owns tag identity and the attach, detach, and rename protocols.
// Every mutation touching more than one row runs inside a single store transaction.
type TagService struct {
	store    store.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, validate *validation.Validator, logger *slog.Logger) *TagService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TagService{store: store, validate: validate, logger: logger}
}

// ListTags returns the owner's tags ordered by name.
func (s *TagService) ListTags(ctx context.Context, ownerID string) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, ownerID)
	return tags, translateStoreError(err)
}

// FindTag looks a tag up by ID, or by case-insensitive name when no ID is given.
func (s *TagService) FindTag(ctx context.Context, ownerID string, ident domain.TagIdentity) (*domain.Tag, error) {
	tag, err := findTag(ctx, s.store, ownerID, ident)
	return tag, translateStoreError(err)
}

// FindOrCreateTag returns the owner's tag named name in any casing, creating
// it with the given casing when none exists. An invalid name yields the
// unsaved tag together with the validation error.
func (s *TagService) FindOrCreateTag(ctx context.Context, ownerID, name string) (*domain.Tag, error) {
	var tag *domain.Tag
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		var err error
		tag, _, err = s.findOrCreate(ctx, r, ownerID, name)
		return err
	})
	return tag, translateStoreError(err)
}

// AttachTag links tag to the owner's transaction txnID. It fails soft: an
// unsaved or invalid tag, or a transaction that does not resolve, leaves
// everything unchanged and reports attached=false without an error.
// Attaching an already attached tag is a no-op that reports attached=true.
func (s *TagService) AttachTag(ctx context.Context, ownerID string, tag *domain.Tag, txnID string) (*domain.Tag, bool, error) {
	var attached bool
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		var err error
		attached, err = s.attach(ctx, r, ownerID, tag, txnID)
		return err
	})
	if err != nil {
		return tag, false, translateStoreError(err)
	}
	return tag, attached, nil
}

// DetachTag unlinks tag from txnID and deletes the tag when that was its last
// link. The returned tag is a snapshot; when deleted is true it no longer exists.
func (s *TagService) DetachTag(ctx context.Context, ownerID string, tag *domain.Tag, txnID string) (*domain.Tag, bool, error) {
	var deleted bool
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		if _, err := r.GetTag(ctx, ownerID, tag.ID); err != nil {
			return err
		}
		var err error
		deleted, err = s.detach(ctx, r, ownerID, tag, txnID)
		return err
	})
	if err != nil {
		return tag, false, translateStoreError(err)
	}
	return tag, deleted, nil
}

// RenameOrMerge gives transaction txnID a tag named newName in place of tag:
//
//   - another tag already has newName: the transaction moves onto it
//   - tag is shared with other transactions: a new tag is forked for txnID
//   - txnID is the only transaction carrying tag: the tag is renamed
//
// It returns the tag now attached to txnID.
func (s *TagService) RenameOrMerge(ctx context.Context, ownerID string, tag *domain.Tag, txnID, newName string) (*domain.Tag, RenameOutcome, error) {
	var (
		result  *domain.Tag
		outcome RenameOutcome
	)
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		var err error
		result, outcome, err = s.renameOrMerge(ctx, r, ownerID, tag, txnID, newName)
		return err
	})
	if err != nil {
		return nil, outcome, translateStoreError(err)
	}
	return result, outcome, nil
}

// AddTagToTransaction finds or creates the tag called name and attaches it to
// txnID. A transaction that already carries a tag of that name is rejected.
func (s *TagService) AddTagToTransaction(ctx context.Context, ownerID, txnID, name string) (*domain.Tag, error) {
	var tag *domain.Tag
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		// 1. Reject duplicates before anything is created.
		existing, err := r.TagsForTransaction(ctx, txnID)
		if err != nil {
			return err
		}
		key := domain.TagKey(name)
		for _, t := range existing {
			if t.UserID == ownerID && t.Key() == key {
				return domainerrors.Validation(msgAlreadyHasTag)
			}
		}

		// 2. Find or create.
		var created bool
		tag, created, err = s.findOrCreate(ctx, r, ownerID, name)
		if err != nil {
			var de *domainerrors.Error
			if errors.As(err, &de) && de.Code == domainerrors.CodeValidation {
				return domainerrors.ValidationWithDetails(msgCouldNotCreateTag, de.Details)
			}
			return err
		}

		// 3. Attach. Fail-soft attach means a missing transaction shows up here.
		attached, err := s.attach(ctx, r, ownerID, tag, txnID)
		if err != nil {
			return err
		}
		if !attached {
			return domainerrors.ValidationWithDetails(msgCouldNotCreateTag, map[string]string{
				"transaction_id": "Could not find transaction item",
			})
		}

		s.logger.Info("tag added to transaction",
			"user_id", ownerID,
			"transaction_id", txnID,
			"tag_id", tag.ID,
			"created", created,
		)
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return tag, nil
}

// UpdateTagOnTransaction renames the tag selected by ident as seen from
// transaction txnID. See RenameOrMerge.
func (s *TagService) UpdateTagOnTransaction(ctx context.Context, ownerID, txnID string, ident domain.TagIdentity, newName string) (*domain.Tag, RenameOutcome, error) {
	var (
		result  *domain.Tag
		outcome RenameOutcome
	)
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		tag, err := findTag(ctx, r, ownerID, ident)
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.Validation(msgTagToUpdateMissing)
		}
		if err != nil {
			return err
		}
		result, outcome, err = s.renameOrMerge(ctx, r, ownerID, tag, txnID, newName)
		return err
	})
	if err != nil {
		return nil, outcome, translateStoreError(err)
	}
	return result, outcome, nil
}

// RemoveTagFromTransaction detaches the tag selected by ident from txnID.
// It fails when the tag is not attached to that transaction.
func (s *TagService) RemoveTagFromTransaction(ctx context.Context, ownerID, txnID string, ident domain.TagIdentity) (*domain.Tag, bool, error) {
	var (
		tag     *domain.Tag
		deleted bool
	)
	err := s.store.RunInTx(ctx, func(r store.Repository) error {
		var err error
		tag, err = findTag(ctx, r, ownerID, ident)
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.Validation(msgCouldNotDetachTag)
		}
		if err != nil {
			return err
		}

		linked, err := r.LinkExists(ctx, tag.ID, txnID)
		if err != nil {
			return err
		}
		if !linked {
			return domainerrors.Validation(msgCouldNotDetachTag)
		}

		deleted, err = s.detach(ctx, r, ownerID, tag, txnID)
		return err
	})
	if err != nil {
		return nil, false, translateStoreError(err)
	}
	return tag, deleted, nil
}

func findTag(ctx context.Context, r store.Tags, ownerID string, ident domain.TagIdentity) (*domain.Tag, error) {
	switch {
	case ident.ID != "":
		return r.GetTag(ctx, ownerID, ident.ID)
	case strings.TrimSpace(ident.Name) != "":
		return r.GetTagByName(ctx, ownerID, ident.Name)
	default:
		return nil, store.ErrTagNotFound
	}
}

func (s *TagService) findOrCreate(ctx context.Context, r store.Repository, ownerID, name string) (*domain.Tag, bool, error) {
	name = strings.TrimSpace(name)
	if err := s.validate.Var("name", name, tagNameRules); err != nil {
		return &domain.Tag{UserID: ownerID, Name: name}, false, err
	}

	existing, err := r.GetTagByName(ctx, ownerID, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrTagNotFound) {
		return nil, false, err
	}

	tag, err := newTag(ownerID, name)
	if err != nil {
		return nil, false, err
	}
	if err := r.CreateTag(ctx, tag); err != nil {
		return nil, false, err
	}
	return tag, true, nil
}

func (s *TagService) attach(ctx context.Context, r store.Repository, ownerID string, tag *domain.Tag, txnID string) (bool, error) {
	if tag == nil || !tag.IsPersisted() || tag.UserID != ownerID {
		return false, nil
	}
	if err := s.validate.Var("name", tag.Name, tagNameRules); err != nil {
		return false, nil
	}

	if _, err := r.GetTransaction(ctx, ownerID, txnID); err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			return false, nil
		}
		return false, err
	}

	if _, err := r.CreateLink(ctx, tag.ID, txnID); err != nil {
		return false, err
	}
	return true, nil
}

// detach removes the link and, if it was the tag's last one, the tag.
func (s *TagService) detach(ctx context.Context, r store.Repository, ownerID string, tag *domain.Tag, txnID string) (bool, error) {
	if _, err := r.DeleteLink(ctx, tag.ID, txnID); err != nil {
		return false, err
	}

	remaining, err := r.CountLinksForTag(ctx, tag.ID)
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}

	if err := r.DeleteTag(ctx, ownerID, tag.ID); err != nil {
		return false, err
	}
	s.logger.Info("orphan tag deleted", "user_id", ownerID, "tag_id", tag.ID)
	return true, nil
}

func (s *TagService) renameOrMerge(ctx context.Context, r store.Repository, ownerID string, tag *domain.Tag, txnID, newName string) (*domain.Tag, RenameOutcome, error) {
	newName = strings.TrimSpace(newName)
	if err := s.validate.Var("name", newName, tagNameRules); err != nil {
		return nil, RenamedInPlace, err
	}

	// 1. Both ends must exist under the owner, and be linked.
	if _, err := r.GetTransaction(ctx, ownerID, txnID); err != nil {
		return nil, RenamedInPlace, err
	}
	current, err := r.GetTag(ctx, ownerID, tag.ID)
	if err != nil {
		return nil, RenamedInPlace, err
	}
	linked, err := r.LinkExists(ctx, current.ID, txnID)
	if err != nil {
		return nil, RenamedInPlace, err
	}
	if !linked {
		return nil, RenamedInPlace, domainerrors.Validation(msgTagNotOnTransaction)
	}

	// 2. Another tag already owns the name: merge onto it.
	target, err := r.GetTagByName(ctx, ownerID, newName)
	switch {
	case err == nil && target.ID != current.ID:
		if _, err := s.detach(ctx, r, ownerID, current, txnID); err != nil {
			return nil, RenameMerged, err
		}
		if _, err := r.CreateLink(ctx, target.ID, txnID); err != nil {
			return nil, RenameMerged, err
		}
		s.logRename(ownerID, txnID, current, target, RenameMerged)
		return target, RenameMerged, nil
	case err == nil:
		// Same tag under a different casing falls through to a rename.
	case !errors.Is(err, store.ErrTagNotFound):
		return nil, RenamedInPlace, err
	default:
		// 3. No tag has the name and others share the current one: fork.
		count, err := r.CountLinksForTag(ctx, current.ID)
		if err != nil {
			return nil, RenameForked, err
		}
		if count > 1 {
			forked, err := newTag(ownerID, newName)
			if err != nil {
				return nil, RenameForked, err
			}
			if _, err := r.DeleteLink(ctx, current.ID, txnID); err != nil {
				return nil, RenameForked, err
			}
			if err := r.CreateTag(ctx, forked); err != nil {
				return nil, RenameForked, err
			}
			if _, err := r.CreateLink(ctx, forked.ID, txnID); err != nil {
				return nil, RenameForked, err
			}
			s.logRename(ownerID, txnID, current, forked, RenameForked)
			return forked, RenameForked, nil
		}
	}

	// 4. txnID is the tag's only transaction: rename in place.
	current.Name = newName
	current.Touch()
	if err := r.RenameTag(ctx, current); err != nil {
		return nil, RenamedInPlace, err
	}
	s.logRename(ownerID, txnID, current, current, RenamedInPlace)
	return current, RenamedInPlace, nil
}

func (s *TagService) logRename(ownerID, txnID string, from, to *domain.Tag, outcome RenameOutcome) {
	s.logger.Info("tag renamed on transaction",
		"user_id", ownerID,
		"transaction_id", txnID,
		"tag_id", from.ID,
		"new_tag_id", to.ID,
		"outcome", outcome.String(),
	)
}

func newTag(ownerID, name string) (*domain.Tag, error) {
	tagID, err := id.Tag()
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}
	tag := &domain.Tag{Record: domain.Record{ID: tagID}, UserID: ownerID, Name: name}
	tag.InitTimestamps()
	return tag, nil
}
