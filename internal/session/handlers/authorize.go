package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/csms/core/internal/codec"
	"github.com/csms/core/internal/codec/actions"
	"github.com/csms/core/internal/store"
	"github.com/csms/core/internal/store/models"
)

const authCacheTTL = 300 * time.Second

// HandleAuthorize consults the IdTag table, falling back to the per-session
// cache when the store is unreachable; an unknown tag is reported Invalid
// rather than rejected at the protocol level (§4.4).
func HandleAuthorize(ctx context.Context, deps Deps, req actions.AuthorizeRequest) (actions.AuthorizeResponse, *codec.CodecError) {
	status, info := resolveIdTag(ctx, deps, req.IdTag)
	deps.Cache.CacheIdTagStatus(req.IdTag, status, authCacheTTL)
	if deps.AuthCache != nil {
		deps.AuthCache.Put(req.IdTag, status)
	}
	return actions.AuthorizeResponse{IdTagInfo: info}, nil
}

// resolveIdTag looks up an IdTag in the store and returns its status plus a
// ready-to-serialize IdTagInfo. A genuine miss (tag not provisioned) is
// Invalid; a store lookup error (store unreachable) instead falls back to
// whatever status this session last cached for tag, only defaulting to
// Invalid if the cache has never seen it either.
func resolveIdTag(ctx context.Context, deps Deps, tag string) (string, actions.IdTagInfo) {
	record, err := deps.Store.GetIdTag(ctx, tag)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && deps.AuthCache != nil {
			if status, ok := deps.AuthCache.Get(tag); ok {
				return status, actions.IdTagInfo{Status: status}
			}
		}
		return string(models.IDTagInvalid), actions.IdTagInfo{Status: string(models.IDTagInvalid)}
	}

	info := actions.IdTagInfo{Status: string(record.Status)}
	if record.ParentID != nil {
		info.ParentIdTag = *record.ParentID
	}
	if record.Expiry != nil {
		info.ExpiryDate = formatTime(*record.Expiry)
	}
	return string(record.Status), info
}
