// Package directory keeps track of every chat the bot has seen and of the
// block list consulted before any update is handled.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Chat kinds stored in the directory.
const (
	KindUser  = "user"
	KindGroup = "group"
)

// Block list namespaces. A target prefixed with "g" lands in the groups
// namespace, anything else in users.
const (
	NamespaceUsers  = "users"
	NamespaceGroups = "groups"
)

// GroupPrefix marks a block target as a group chat id.
const GroupPrefix = "g"

// ErrEmptyTarget is returned by Block when the target resolves to an empty id.
var ErrEmptyTarget = errors.New("directory: empty block target")

// ChatRecord is a single directory entry.
type ChatRecord struct {
	ID          string    `db:"id"`
	Kind        string    `db:"kind"`
	DisplayName string    `db:"display_name"`
	LastSeen    time.Time `db:"last_seen"`
}

// Store is the persistence boundary of the chat directory.
//
// RecordSeen upserts a chat entry with last-write-wins semantics on seenAt.
// IsBlocked reports whether the user id is blocked in the users namespace or
// the chat id in the groups namespace. Block files a raw admin-supplied
// target into the right namespace; it never checks that the id refers to a
// chat the bot has seen.
type Store interface {
	RecordSeen(ctx context.Context, chatID, kind, displayName string, seenAt time.Time) error
	ListUsers(ctx context.Context) ([]ChatRecord, error)
	ListGroups(ctx context.Context) ([]ChatRecord, error)

	Block(ctx context.Context, target string) error
	IsBlocked(ctx context.Context, chatID, userID string) (bool, error)
}

// SplitTarget resolves a raw block target into its namespace and bare id.
func SplitTarget(target string) (namespace, id string, err error) {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, GroupPrefix) {
		namespace = NamespaceGroups
		id = strings.TrimSpace(strings.TrimPrefix(target, GroupPrefix))
	} else {
		namespace = NamespaceUsers
		id = target
	}
	if id == "" {
		return "", "", ErrEmptyTarget
	}
	return namespace, id, nil
}
